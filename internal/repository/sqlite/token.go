package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/mtaabiz/internal/domain"
)

// TokenRepository implements domain.TokenRepository using SQLite.
type TokenRepository struct {
	db querier
}

// NewTokenRepository creates a new SQLite-backed TokenRepository.
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db.SqlDB}
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (key, user_id, created_at) VALUES (?, ?, ?)",
		token.Key, token.UserID, now,
	); err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert token: %w", err)
	}
	token.CreatedAt = now
	return nil
}

func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*domain.AuthToken, error) {
	return r.getOne(ctx, "key = ?", key)
}

func (r *TokenRepository) GetByUser(ctx context.Context, userID int64) (*domain.AuthToken, error) {
	return r.getOne(ctx, "user_id = ?", userID)
}

func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *TokenRepository) getOne(ctx context.Context, where string, arg any) (*domain.AuthToken, error) {
	t := &domain.AuthToken{}
	err := r.db.QueryRowContext(ctx,
		"SELECT key, user_id, created_at FROM auth_tokens WHERE "+where, arg,
	).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	return t, nil
}
