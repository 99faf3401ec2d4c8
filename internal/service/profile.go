package service

import (
	"context"
	"fmt"

	"github.com/msomdec/mtaabiz/internal/domain"
)

// ProfileService owns the entitlement profile lifecycle.
type ProfileService struct {
	db   domain.Transactor
	gate *EntitlementGate
}

// NewProfileService creates a new ProfileService.
func NewProfileService(db domain.Transactor, gate *EntitlementGate) *ProfileService {
	return &ProfileService{db: db, gate: gate}
}

// EnsureProfile returns the user's profile, creating a free-tier one if absent.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	return s.EnsureProfileIn(ctx, s.db, userID)
}

// EnsureProfileIn is EnsureProfile against repositories of an open transaction.
func (s *ProfileService) EnsureProfileIn(ctx context.Context, repos domain.Repositories, userID int64) (*domain.Profile, error) {
	p, err := repos.Profiles().Ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure profile for user %d: %w", userID, err)
	}
	return p, nil
}

// SetPro sets the entitlement flag. No payment verification happens here.
func (s *ProfileService) SetPro(ctx context.Context, userID int64, isPro bool) (*domain.Profile, error) {
	p, err := s.db.Profiles().SetPro(ctx, userID, isPro)
	if err != nil {
		return nil, fmt.Errorf("set pro for user %d: %w", userID, err)
	}
	return p, nil
}

// SetProByUsername is the administrative form of SetPro.
func (s *ProfileService) SetProByUsername(ctx context.Context, username string, isPro bool) (*domain.Profile, error) {
	user, err := s.db.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return s.SetPro(ctx, user.ID, isPro)
}

// Status reports plan and invoice usage for the user.
func (s *ProfileService) Status(ctx context.Context, userID int64) (*domain.Status, error) {
	p, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	n, err := s.db.Invoices().CountByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}
	return &domain.Status{IsPro: p.IsPro, InvoiceCount: n, Limit: s.gate.Limit()}, nil
}
