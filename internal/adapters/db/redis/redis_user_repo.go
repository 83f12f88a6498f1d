package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customErrors "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/model"
)

const (
	userKeyPrefix     = "auth:user:"
	usernameKeyPrefix = "auth:username:"
	tokensKeyPrefix   = "auth:tokens:"
)

// RedisUserRepo keeps each identity in a hash plus a set holding its
// active refresh tokens. Writes to the token set go through WATCH so
// the version check and the write commit atomically.
type RedisUserRepo struct {
	client *redis.Client
}

func NewRedisUserRepo(client *redis.Client) *RedisUserRepo {
	return &RedisUserRepo{client: client}
}

func userKey(id uuid.UUID) string       { return userKeyPrefix + id.String() }
func usernameKey(name string) string    { return usernameKeyPrefix + name }
func tokensKey(id uuid.UUID) string     { return tokensKeyPrefix + id.String() }
func idFromTokensKey(key string) string { return strings.TrimPrefix(key, tokensKeyPrefix) }

func (r *RedisUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	// the username key doubles as the uniqueness guard
	ok, err := r.client.SetNX(ctx, usernameKey(user.Username), user.ID.String(), 0).Result()
	if err != nil {
		return uuid.Nil, customErrors.WrapStore(err, "CreateUser")
	}
	if !ok {
		return uuid.Nil, customErrors.ErrAlreadyExists
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, userKey(user.ID), map[string]interface{}{
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"version":       user.Version,
		"created_at":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if len(user.RefreshTokens) > 0 {
		pipe.SAdd(ctx, tokensKey(user.ID), toMembers(user.RefreshTokens)...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return uuid.Nil, customErrors.WrapStore(err, "CreateUser")
	}
	return user.ID, nil
}

func (r *RedisUserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	idStr, err := r.client.Get(ctx, usernameKey(username)).Result()
	switch {
	case err == redis.Nil:
		return model.User{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, customErrors.WrapStore(err, "GetUserByUsername")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByUsername")
	}
	return r.loadUser(ctx, id)
}

// GetUserByRefreshToken scans the token sets; there is no token index
// to consult, membership itself is the relation.
func (r *RedisUserRepo) GetUserByRefreshToken(ctx context.Context, token string) (model.User, error) {
	iter := r.client.Scan(ctx, 0, tokensKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		member, err := r.client.SIsMember(ctx, key, token).Result()
		if err != nil {
			return model.User{}, customErrors.WrapStore(err, "GetUserByRefreshToken")
		}
		if !member {
			continue
		}
		id, err := uuid.Parse(idFromTokensKey(key))
		if err != nil {
			return model.User{}, customErrors.WrapInternal(err, "GetUserByRefreshToken")
		}
		return r.loadUser(ctx, id)
	}
	if err := iter.Err(); err != nil {
		return model.User{}, customErrors.WrapStore(err, "GetUserByRefreshToken")
	}
	return model.User{}, customErrors.ErrNotFound
}

func (r *RedisUserRepo) UpdateUserTokens(ctx context.Context, user model.User) error {
	userK := userKey(user.ID)
	tokensK := tokensKey(user.ID)

	txf := func(tx *redis.Tx) error {
		verStr, err := tx.HGet(ctx, userK, "version").Result()
		switch {
		case err == redis.Nil:
			return customErrors.ErrNotFound
		case err != nil:
			return err
		}
		ver, err := strconv.ParseInt(verStr, 10, 64)
		if err != nil {
			return err
		}
		if ver != user.Version {
			return customErrors.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, tokensK)
			if len(user.RefreshTokens) > 0 {
				pipe.SAdd(ctx, tokensK, toMembers(user.RefreshTokens)...)
			}
			pipe.HSet(ctx, userK, "version", user.Version+1)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, userK, tokensK)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		// a concurrent writer touched the watched keys
		return customErrors.ErrVersionConflict
	case customErrors.IsVersionConflict(err) || customErrors.IsNotFound(err):
		return err
	default:
		return customErrors.WrapStore(err, "UpdateUserTokens")
	}
}

func (r *RedisUserRepo) loadUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	fields, err := r.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return model.User{}, customErrors.WrapStore(err, "loadUser")
	}
	if len(fields) == 0 {
		return model.User{}, customErrors.ErrNotFound
	}

	tokens, err := r.client.SMembers(ctx, tokensKey(id)).Result()
	if err != nil {
		return model.User{}, customErrors.WrapStore(err, "loadUser")
	}
	if tokens == nil {
		tokens = []string{}
	}

	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "loadUser")
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])

	return model.User{
		ID:            id,
		Username:      fields["username"],
		PasswordHash:  fields["password_hash"],
		RefreshTokens: tokens,
		Version:       version,
		CreatedAt:     createdAt,
	}, nil
}

func toMembers(tokens []string) []interface{} {
	members := make([]interface{}, len(tokens))
	for i, t := range tokens {
		members[i] = t
	}
	return members
}
