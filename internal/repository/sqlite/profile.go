package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/mtaabiz/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository using SQLite.
type ProfileRepository struct {
	db querier
}

// NewProfileRepository creates a new SQLite-backed ProfileRepository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db.SqlDB}
}

// Ensure returns the user's profile, inserting a free-tier one if none exists.
func (r *ProfileRepository) Ensure(ctx context.Context, userID int64) (*domain.Profile, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, is_pro, updated_at) VALUES (?, FALSE, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return r.get(ctx, userID)
}

// SetPro upserts the entitlement flag for the user.
func (r *ProfileRepository) SetPro(ctx context.Context, userID int64, isPro bool) (*domain.Profile, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, is_pro, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET is_pro = excluded.is_pro, updated_at = excluded.updated_at`,
		userID, isPro, time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return r.get(ctx, userID)
}

func (r *ProfileRepository) get(ctx context.Context, userID int64) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, is_pro, updated_at FROM profiles WHERE user_id = ?", userID,
	).Scan(&p.UserID, &p.IsPro, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}
