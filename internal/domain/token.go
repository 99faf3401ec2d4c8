package domain

import (
	"context"
	"time"
)

// AuthToken maps an opaque key to exactly one user.
type AuthToken struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}

// TokenRepository stores the key-to-user mapping behind bearer tokens.
// Delete is idempotent: removing a missing key is not an error.
type TokenRepository interface {
	Create(ctx context.Context, token *AuthToken) error
	GetByKey(ctx context.Context, key string) (*AuthToken, error)
	GetByUser(ctx context.Context, userID int64) (*AuthToken, error)
	Delete(ctx context.Context, key string) error
}
