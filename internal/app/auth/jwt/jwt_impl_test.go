package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/infra/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:  "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
		Issuer:           "test",
		Audience:         "test",
	}
}

func TestJWTUtil_GenerateValidate(t *testing.T) {
	util, err := NewJWTUtil(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	uid := uuid.New()
	token, exp, err := util.GenerateAccessToken(uid, "alice")
	if err != nil || exp.IsZero() {
		t.Fatalf("bad generate: %v", err)
	}
	claims, err := util.ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != uid.String() {
		t.Fatalf("want %s got %s", uid, claims.Subject)
	}
	if claims.Username != "alice" {
		t.Fatalf("want alice got %s", claims.Username)
	}
}

func TestJWTUtil_RefreshCycle(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	uid := uuid.New()
	rTok, exp, err := util.GenerateRefreshToken(uid, "bob")
	if err != nil || exp.IsZero() {
		t.Fatalf("bad generate: %v", err)
	}
	cl, err := util.ValidateRefreshToken(rTok)
	if err != nil || cl.Subject != uid.String() {
		t.Fatalf("validate error: %v", err)
	}
}

func TestJWTUtil_ClassesNotInterchangeable(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	uid := uuid.New()

	rTok, _, _ := util.GenerateRefreshToken(uid, "alice")
	if _, err := util.ValidateAccessToken(rTok); !customErrors.IsInvalidToken(err) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}

	aTok, _, _ := util.GenerateAccessToken(uid, "alice")
	if _, err := util.ValidateRefreshToken(aTok); !customErrors.IsInvalidToken(err) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestJWTUtil_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Hour
	util, _ := NewJWTUtil(cfg)

	token, _, err := util.GenerateAccessToken(uuid.New(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	_, err = util.ValidateAccessToken(token)
	if err != customErrors.ErrTokenExpired {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestJWTUtil_Malformed(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	_, err := util.ValidateAccessToken("not-a-token")
	if err != customErrors.ErrTokenMalformed {
		t.Fatalf("want ErrTokenMalformed, got %v", err)
	}
}

func TestJWTUtil_Tampered(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	token, _, _ := util.GenerateAccessToken(uuid.New(), "alice")

	// flip the last signature byte
	bs := []byte(token)
	if bs[len(bs)-1] == 'A' {
		bs[len(bs)-1] = 'B'
	} else {
		bs[len(bs)-1] = 'A'
	}
	_, err := util.ValidateAccessToken(string(bs))
	if !customErrors.IsInvalidToken(err) {
		t.Fatalf("want invalid token, got %v", err)
	}
}

func TestJWTUtil_InvalidAlg(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "1"}).
		SignedString([]byte("access-secret-for-tests"))
	if _, err := util.ValidateAccessToken(token); !customErrors.IsInvalidToken(err) {
		t.Fatalf("expected invalid alg rejection, got %v", err)
	}
}

func TestJWTUtil_InvalidIssuer(t *testing.T) {
	cfg := testConfig()
	util, _ := NewJWTUtil(cfg)
	otherCfg := *cfg
	otherCfg.Issuer = "other"
	other, _ := NewJWTUtil(&otherCfg)
	tok, _, _ := other.GenerateAccessToken(uuid.New(), "alice")
	if _, err := util.ValidateAccessToken(tok); err == nil {
		t.Fatal("expected issuer error")
	}
}

func TestJWTUtil_InvalidAudience(t *testing.T) {
	cfg := testConfig()
	util, _ := NewJWTUtil(cfg)
	otherCfg := *cfg
	otherCfg.Audience = "other"
	other, _ := NewJWTUtil(&otherCfg)
	tok, _, _ := other.GenerateRefreshToken(uuid.New(), "alice")
	if _, err := util.ValidateRefreshToken(tok); err == nil {
		t.Fatal("expected audience error")
	}
}

func TestNewJWTUtil_RejectsSharedSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTRefreshSecret = cfg.JWTAccessSecret
	if _, err := NewJWTUtil(cfg); err == nil {
		t.Fatal("expected error for identical secrets")
	}
}
