package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted identity record. RefreshTokens holds the active
// set: a refresh token is only redeemable while it is a member here.
type User struct {
	ID            uuid.UUID
	Username      string
	PasswordHash  string
	RefreshTokens []string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

func (u *User) AddRefreshToken(token string) {
	u.RefreshTokens = append(u.RefreshTokens, token)
}

// RemoveRefreshToken filters token out of the active set and reports
// whether it was present. The set stays non-nil so an emptied set still
// persists as an empty array.
func (u *User) RemoveRefreshToken(token string) bool {
	kept := make([]string, 0, len(u.RefreshTokens))
	found := false
	for _, t := range u.RefreshTokens {
		if t == token {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	u.RefreshTokens = kept
	return found
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       uuid.UUID
}
