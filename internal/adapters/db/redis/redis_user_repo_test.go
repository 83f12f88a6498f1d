package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/model"
)

func newRepo(t *testing.T) *RedisUserRepo {
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	return NewRedisUserRepo(client)
}

func newUser(username string) model.User {
	return model.User{
		ID:            uuid.New(),
		Username:      username,
		PasswordHash:  "hash",
		RefreshTokens: []string{},
	}
}

func TestRedisUserRepo_CreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	user := newUser("alice")
	id, err := repo.CreateUser(ctx, user)
	if err != nil || id != user.ID {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != "hash" {
		t.Fatalf("loaded record mismatch: %+v", got)
	}
	if len(got.RefreshTokens) != 0 {
		t.Fatalf("fresh user must have an empty active set, got %v", got.RefreshTokens)
	}

	if _, err := repo.GetUserByUsername(ctx, "nobody"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedisUserRepo_DuplicateUsername(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, newUser("alice")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateUser(ctx, newUser("alice")); !errors.IsAlreadyExists(err) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestRedisUserRepo_RefreshTokenLookup(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	user := newUser("alice")
	if _, err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	user.AddRefreshToken("tok-1")
	if err := repo.UpdateUserTokens(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetUserByRefreshToken(ctx, "tok-1")
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by token: %v", err)
	}
	if got.Version != user.Version+1 {
		t.Fatalf("version want %d got %d", user.Version+1, got.Version)
	}

	if _, err := repo.GetUserByRefreshToken(ctx, "tok-2"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedisUserRepo_VersionConflict(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	user := newUser("alice")
	if _, err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	first := user
	first.AddRefreshToken("tok-1")
	if err := repo.UpdateUserTokens(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale := user
	stale.AddRefreshToken("tok-2")
	if err := repo.UpdateUserTokens(ctx, stale); !errors.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	got, err := repo.GetUserByRefreshToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.RefreshTokens) != 1 {
		t.Fatalf("active set corrupted: %v", got.RefreshTokens)
	}
}

func TestRedisUserRepo_EmptySetPersists(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	user := newUser("alice")
	if _, err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	user.AddRefreshToken("tok-1")
	if err := repo.UpdateUserTokens(ctx, user); err != nil {
		t.Fatalf("add: %v", err)
	}

	emptied, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	emptied.RemoveRefreshToken("tok-1")
	if err := repo.UpdateUserTokens(ctx, emptied); err != nil {
		t.Fatalf("empty update: %v", err)
	}

	if _, err := repo.GetUserByRefreshToken(ctx, "tok-1"); !errors.IsNotFound(err) {
		t.Fatalf("token should be gone, got %v", err)
	}
}
