// Package redis provides a Redis-backed token store for deployments that run
// more than one API instance against shared session state.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/msomdec/mtaabiz/internal/domain"
)

var _ domain.TokenRepository = (*TokenRepository)(nil)

const (
	tokenPrefix     = "token:"
	userTokenPrefix = "user_token:"
)

// TokenRepository implements domain.TokenRepository on Redis. Each token is
// stored under token:<key> with a reverse index user_token:<user id> that
// keeps one token per user.
type TokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenRecord struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewTokenRepository creates a TokenRepository. Keys expire after ttl; zero
// keeps them until deleted.
func NewTokenRepository(client *redis.Client, ttl time.Duration) *TokenRepository {
	return &TokenRepository{client: client, ttl: ttl}
}

// Create claims the per-user slot first so two concurrent logins cannot both
// store a token for the same user.
func (r *TokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	now := time.Now().UTC()
	ok, err := r.client.SetNX(ctx, userKey(token.UserID), token.Key, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim user token: %w", err)
	}
	if !ok {
		return domain.ErrDuplicate
	}

	payload, err := json.Marshal(tokenRecord{UserID: token.UserID, CreatedAt: now})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	ok, err = r.client.SetNX(ctx, tokenPrefix+token.Key, payload, r.ttl).Result()
	if err != nil || !ok {
		r.client.Del(ctx, userKey(token.UserID))
		if err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		return domain.ErrDuplicate
	}

	token.CreatedAt = now
	return nil
}

func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*domain.AuthToken, error) {
	raw, err := r.client.Get(ctx, tokenPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	var rec tokenRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &domain.AuthToken{Key: key, UserID: rec.UserID, CreatedAt: rec.CreatedAt}, nil
}

func (r *TokenRepository) GetByUser(ctx context.Context, userID int64) (*domain.AuthToken, error) {
	key, err := r.client.Get(ctx, userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user token: %w", err)
	}
	token, err := r.GetByKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		// Stale index entry; drop it so a new token can be created.
		r.client.Del(ctx, userKey(userID))
	}
	return token, err
}

// Delete removes the token and, when it still points at this token, the
// user's index entry.
func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	token, err := r.GetByKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	uk := userKey(token.UserID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, uk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, tokenPrefix+key)
			if current == key {
				pipe.Del(ctx, uk)
			}
			return nil
		})
		return err
	}, uk)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func userKey(userID int64) string {
	return userTokenPrefix + strconv.FormatInt(userID, 10)
}
