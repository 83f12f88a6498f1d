package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload carried by both token classes: the owning
// identity in Subject plus its username. The classes share the shape
// but never a signing key.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTUtil mints and verifies the two token classes. Access tokens are
// short-lived and stateless; refresh tokens are long-lived and only
// redeemable while present in the owner's active set.
type JWTUtil interface {
	GenerateAccessToken(userID uuid.UUID, username string) (token string, exp time.Time, err error)

	GenerateRefreshToken(userID uuid.UUID, username string) (token string, exp time.Time, err error)

	// ValidateAccessToken fails with ErrTokenMalformed, ErrTokenExpired
	// or ErrSignatureInvalid; it never returns claims on a failure path.
	ValidateAccessToken(raw string) (Claims, error)

	ValidateRefreshToken(raw string) (Claims, error)
}
