package password

import (
	"github.com/alexedwards/argon2id"

	customErrors "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
)

// MaxPasswordBytes bounds hashing input so an oversized plaintext fails
// fast instead of burning memory-hard work on it.
const MaxPasswordBytes = 1024

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher produces salted one-way password records. Hashing the same
// plaintext twice yields different records; comparison is constant-time
// inside argon2id.
type Hasher struct {
	pepper string
}

func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: pepper}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", customErrors.ErrPasswordTooLong
	}
	record, err := argon2id.CreateHash(plaintext+h.pepper, argonParams)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash password")
	}
	return record, nil
}

// Verify reports whether plaintext is the password originally hashed
// into record. Malformed records verify as false, never as an error.
func (h *Hasher) Verify(plaintext, record string) bool {
	if len(plaintext) > MaxPasswordBytes {
		return false
	}
	ok, err := argon2id.ComparePasswordAndHash(plaintext+h.pepper, record)
	if err != nil {
		return false
	}
	return ok
}
