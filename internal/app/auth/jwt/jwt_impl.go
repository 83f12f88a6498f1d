package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
	domjwt "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/jwt"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/infra/config"
)

// JwtUtilImpl signs with HMAC-SHA256 using a distinct secret per token
// class. A token minted with one secret can never verify under the
// other, so the classes are not interchangeable.
type JwtUtilImpl struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("both signing secrets must be set")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}

	return &JwtUtilImpl{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
	}, nil
}

func (j *JwtUtilImpl) GenerateAccessToken(userID uuid.UUID, username string) (string, time.Time, error) {
	return j.generate(userID, username, j.accessSecret, j.accessTTL)
}

func (j *JwtUtilImpl) GenerateRefreshToken(userID uuid.UUID, username string) (string, time.Time, error) {
	return j.generate(userID, username, j.refreshSecret, j.refreshTTL)
}

func (j *JwtUtilImpl) generate(userID uuid.UUID, username string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()

	claims := domjwt.Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) ValidateAccessToken(raw string) (domjwt.Claims, error) {
	return j.validate(raw, j.accessSecret)
}

func (j *JwtUtilImpl) ValidateRefreshToken(raw string) (domjwt.Claims, error) {
	return j.validate(raw, j.refreshSecret)
}

func (j *JwtUtilImpl) validate(raw string, secret []byte) (domjwt.Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &domjwt.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(30*time.Second))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domjwt.Claims{}, customErrors.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return domjwt.Claims{}, customErrors.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return domjwt.Claims{}, customErrors.ErrSignatureInvalid
		case errors.Is(err, customErrors.ErrSignatureInvalid):
			return domjwt.Claims{}, customErrors.ErrSignatureInvalid
		default:
			return domjwt.Claims{}, customErrors.ErrInvalidToken
		}
	}
	if !token.Valid {
		return domjwt.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*domjwt.Claims)
	if !ok {
		return domjwt.Claims{}, customErrors.WrapInternal(
			errors.New("claims have unexpected type"), "validate token",
		)
	}

	if j.issuer != "" && claims.Issuer != j.issuer {
		return domjwt.Claims{}, customErrors.ErrInvalidToken
	}

	if j.audience != "" {
		okAud := false
		for _, a := range claims.Audience {
			if a == j.audience {
				okAud = true
				break
			}
		}
		if !okAud {
			return domjwt.Claims{}, customErrors.ErrInvalidToken
		}
	}

	return *claims, nil
}
