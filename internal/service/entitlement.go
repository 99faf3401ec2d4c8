package service

import (
	"context"
	"fmt"

	"github.com/msomdec/mtaabiz/internal/domain"
)

// FreeInvoiceLimit is the number of invoices a non-PRO user may own.
const FreeInvoiceLimit = 5

// Decision is the outcome of one entitlement check.
type Decision struct {
	Allowed   bool
	IsPro     bool
	Used      int
	Limit     int
	Remaining int // -1 means unlimited
	Reason    string
}

// DecisionRecorder observes gate decisions, e.g. for metrics.
type DecisionRecorder interface {
	RecordDecision(d Decision)
}

// EntitlementGate decides whether a user may create another invoice.
type EntitlementGate struct {
	limit    int
	recorder DecisionRecorder
}

// NewEntitlementGate creates a gate with the given free-tier limit. A nil
// recorder disables observation.
func NewEntitlementGate(limit int, recorder DecisionRecorder) *EntitlementGate {
	if limit < 0 {
		limit = 0
	}
	return &EntitlementGate{limit: limit, recorder: recorder}
}

// Limit returns the free-tier invoice limit.
func (g *EntitlementGate) Limit() int { return g.limit }

// CheckInvoiceCreate evaluates the quota for userID using repos, which
// should belong to the same transaction as the subsequent insert. A missing
// profile is created on the spot and counts as free tier.
func (g *EntitlementGate) CheckInvoiceCreate(ctx context.Context, repos domain.Repositories, userID int64) (Decision, error) {
	profile, err := repos.Profiles().Ensure(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve profile: %w", err)
	}

	d := Decision{IsPro: profile.IsPro, Limit: g.limit}
	if profile.IsPro {
		d.Allowed = true
		d.Remaining = -1
		g.record(d)
		return d, nil
	}

	used, err := repos.Invoices().CountByOwner(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("count invoices: %w", err)
	}
	d.Used = used
	d.Remaining = max(0, g.limit-used)
	if used >= g.limit {
		d.Reason = "quota exceeded"
	} else {
		d.Allowed = true
	}
	g.record(d)
	return d, nil
}

// Err converts a denied decision into ErrQuotaExceeded.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.ErrQuotaExceeded
}

func (g *EntitlementGate) record(d Decision) {
	if g.recorder != nil {
		g.recorder.RecordDecision(d)
	}
}
