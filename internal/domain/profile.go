package domain

import (
	"context"
	"time"
)

// Profile holds the entitlement state of exactly one user.
type Profile struct {
	UserID    int64
	IsPro     bool
	UpdatedAt time.Time
}

// ProfileRepository persists profiles. Ensure is fetch-or-create keyed on the
// user id and never produces a second row for the same user.
type ProfileRepository interface {
	Ensure(ctx context.Context, userID int64) (*Profile, error)
	SetPro(ctx context.Context, userID int64, isPro bool) (*Profile, error)
}

// Status summarises a user's plan usage.
type Status struct {
	IsPro        bool
	InvoiceCount int
	Limit        int
}
