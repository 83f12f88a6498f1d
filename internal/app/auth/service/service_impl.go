package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iamabhishekbhol/JWT-Authentication/internal/adapters/transport/http/dto"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/app/auth/password"
	customErrors "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/jwt"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/model"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/repo"
)

// maxCASAttempts bounds the optimistic-concurrency retry loop. A rotate
// loser re-reads after a conflict and finds its token gone, so retries
// only matter when an unrelated mutation (a concurrent login) raced.
const maxCASAttempts = 5

type authService struct {
	users   repo.UserRepo
	jwtUtil jwt.JWTUtil
	hasher  *password.Hasher
	v       *validator.Validate

	// decoyHash absorbs a password verification for unknown usernames so
	// a failed login takes the same time whether or not the user exists.
	decoyHash string
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (uuid.UUID, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Rotate(context.Context, dto.RotateDTO) (model.TokenPair, error)
	Logout(context.Context, dto.LogoutDTO) error
	ValidateAccess(context.Context, dto.ValidateDTO) (jwt.Claims, error)
}

func New(
	ur repo.UserRepo,
	jm jwt.JWTUtil,
	h *password.Hasher,
	v *validator.Validate,
) (Service, error) {
	decoy, err := h.Hash(uuid.NewString())
	if err != nil {
		return nil, customErrors.WrapInternal(err, "init decoy hash")
	}
	return &authService{
		users: ur, jwtUtil: jm, hasher: h, v: v, decoyHash: decoy,
	}, nil
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (uuid.UUID, error) {
	if err := a.v.Struct(in); err != nil {
		return uuid.Nil, customErrors.NewInvalidArgument(err.Error())
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		if customErrors.IsPasswordTooLong(err) {
			return uuid.Nil, err
		}
		return uuid.Nil, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:            uuid.New(),
		Username:      in.Username,
		PasswordHash:  passwordHash,
		RefreshTokens: []string{},
	}

	id, err := a.users.CreateUser(ctx, user)
	switch {
	case err == nil:
		return id, nil
	case customErrors.IsAlreadyExists(err):
		return uuid.Nil, customErrors.ErrAlreadyExists
	case customErrors.IsStoreUnavailable(err):
		return uuid.Nil, err
	default:
		return uuid.Nil, customErrors.WrapInternal(err, "Register")
	}
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.users.GetUserByUsername(ctx, in.Username)
	switch {
	case customErrors.IsNotFound(err):
		a.hasher.Verify(in.Password, a.decoyHash)
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case customErrors.IsStoreUnavailable(err):
		return model.TokenPair{}, err
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	if !a.hasher.Verify(in.Password, user.PasswordHash) {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	at, atExp, err := a.jwtUtil.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, err := a.jwtUtil.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	for attempt := 0; ; attempt++ {
		user.AddRefreshToken(rt)

		err = a.users.UpdateUserTokens(ctx, user)
		if err == nil {
			break
		}
		if !customErrors.IsVersionConflict(err) || attempt+1 >= maxCASAttempts {
			return model.TokenPair{}, storeOrInternal(err, "Login")
		}

		// another request moved the record; re-read and re-apply
		user, err = a.users.GetUserByUsername(ctx, in.Username)
		if err != nil {
			return model.TokenPair{}, storeOrInternal(err, "Login")
		}
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

// Rotate redeems a refresh token: at most one concurrent caller wins,
// the old token leaves the active set, and a fresh pair is issued. On
// any failure the old token stays valid; there is no partial state.
func (a *authService) Rotate(ctx context.Context, in dto.RotateDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.jwtUtil.ValidateRefreshToken(in.Token)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	var lastErr error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		// lookup by the raw presented string: cryptographic validity is
		// not enough, the token must still be in someone's active set
		user, err := a.users.GetUserByRefreshToken(ctx, in.Token)
		switch {
		case customErrors.IsNotFound(err):
			return model.TokenPair{}, customErrors.ErrTokenRevoked
		case customErrors.IsStoreUnavailable(err):
			return model.TokenPair{}, err
		case err != nil:
			return model.TokenPair{}, customErrors.WrapInternal(err, "Rotate")
		}

		if claims.Subject != user.ID.String() {
			return model.TokenPair{}, customErrors.ErrTokenRevoked
		}

		rt, rtExp, err := a.jwtUtil.GenerateRefreshToken(user.ID, user.Username)
		if err != nil {
			return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
		}

		if !user.RemoveRefreshToken(in.Token) {
			return model.TokenPair{}, customErrors.ErrTokenRevoked
		}
		user.AddRefreshToken(rt)

		err = a.users.UpdateUserTokens(ctx, user)
		switch {
		case err == nil:
			at, atExp, err := a.jwtUtil.GenerateAccessToken(user.ID, user.Username)
			if err != nil {
				return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
			}
			now := time.Now()
			return model.TokenPair{
				AccessToken:  at,
				RefreshToken: rt,
				AccessTTL:    atExp.Sub(now),
				RefreshTTL:   rtExp.Sub(now),
				UserID:       user.ID,
			}, nil
		case customErrors.IsVersionConflict(err):
			// a racing rotate or login got there first; the re-read above
			// decides whether our token survived
			lastErr = err
		case customErrors.IsStoreUnavailable(err):
			return model.TokenPair{}, err
		default:
			return model.TokenPair{}, customErrors.WrapInternal(err, "Rotate")
		}
	}

	return model.TokenPair{}, customErrors.WrapStore(lastErr, "Rotate: contention")
}

// Logout removes the presented token from its owner's active set. The
// result is nil whether or not the token was found, so a caller probing
// stolen tokens learns nothing.
func (a *authService) Logout(ctx context.Context, in dto.LogoutDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		user, err := a.users.GetUserByRefreshToken(ctx, in.Token)
		switch {
		case customErrors.IsNotFound(err):
			return nil
		case customErrors.IsStoreUnavailable(err):
			return err
		case err != nil:
			return customErrors.WrapInternal(err, "Logout")
		}

		if !user.RemoveRefreshToken(in.Token) {
			return nil
		}

		err = a.users.UpdateUserTokens(ctx, user)
		switch {
		case err == nil:
			return nil
		case customErrors.IsVersionConflict(err):
			continue
		case customErrors.IsStoreUnavailable(err):
			return err
		default:
			return customErrors.WrapInternal(err, "Logout")
		}
	}

	return customErrors.WrapStore(customErrors.ErrVersionConflict, "Logout: contention")
}

// ValidateAccess is pure signer-level verification; no store lookup.
func (a *authService) ValidateAccess(_ context.Context, in dto.ValidateDTO) (jwt.Claims, error) {
	if err := a.v.Struct(in); err != nil {
		return jwt.Claims{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.jwtUtil.ValidateAccessToken(in.AccessToken)
	if err != nil {
		return jwt.Claims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}

func storeOrInternal(err error, context string) error {
	if customErrors.IsStoreUnavailable(err) || customErrors.IsVersionConflict(err) {
		return customErrors.WrapStore(err, context)
	}
	return customErrors.WrapInternal(err, context)
}
