package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/model"
)

// userRecord is the gorm shape of model.User. RefreshTokens is stored
// as a JSON document so the same record works on postgres and on the
// sqlite driver used in tests.
type userRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username      string    `gorm:"uniqueIndex;not null"`
	PasswordHash  string    `gorm:"not null"`
	RefreshTokens []string  `gorm:"serializer:json"`
	Version       int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (userRecord) TableName() string { return "users" }

func toRecord(u model.User) userRecord {
	tokens := u.RefreshTokens
	if tokens == nil {
		tokens = []string{}
	}
	return userRecord{
		ID:            u.ID,
		Username:      u.Username,
		PasswordHash:  u.PasswordHash,
		RefreshTokens: tokens,
		Version:       u.Version,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toModel(r userRecord) model.User {
	tokens := r.RefreshTokens
	if tokens == nil {
		tokens = []string{}
	}
	return model.User{
		ID:            r.ID,
		Username:      r.Username,
		PasswordHash:  r.PasswordHash,
		RefreshTokens: tokens,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	rec := toRecord(user)
	res := p.db.WithContext(ctx).Create(&rec)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapStore(err, "CreateUser")
	}
	return rec.ID, nil
}

func (p *PostgresUserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var r userRecord
	res := p.db.WithContext(ctx).Where("username = ?", username).First(&r)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapStore(err, "GetUserByUsername")
	}

	return toModel(r), nil
}

var errTokenFound = errors.New("token found")

// GetUserByRefreshToken walks the table in batches and checks set
// membership in Go. The active-token relation carries no index, and the
// JSON membership operators differ per backend.
func (p *PostgresUserRepo) GetUserByRefreshToken(ctx context.Context, token string) (model.User, error) {
	var out model.User
	var batch []userRecord
	res := p.db.WithContext(ctx).FindInBatches(&batch, 200, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			for _, t := range batch[i].RefreshTokens {
				if t == token {
					out = toModel(batch[i])
					return errTokenFound
				}
			}
		}
		return nil
	})

	switch {
	case errors.Is(res.Error, errTokenFound):
		return out, nil
	case res.Error != nil:
		return model.User{}, customErrors.WrapStore(res.Error, "GetUserByRefreshToken")
	default:
		return model.User{}, customErrors.ErrNotFound
	}
}

// UpdateUserTokens writes the full refresh-token set back under an
// optimistic version check: zero rows affected means another writer got
// there first.
func (p *PostgresUserRepo) UpdateUserTokens(ctx context.Context, user model.User) error {
	rec := toRecord(user)
	res := p.db.WithContext(ctx).Model(&userRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Select("refresh_tokens", "version", "updated_at").
		Updates(userRecord{
			RefreshTokens: rec.RefreshTokens,
			Version:       rec.Version + 1,
			UpdatedAt:     time.Now(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapStore(err, "UpdateUserTokens")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrVersionConflict
	}
	return nil
}
