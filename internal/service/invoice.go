package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/msomdec/mtaabiz/internal/domain"
)

const maxClientNameLength = 255

// InvoiceInput carries the writable invoice fields. A nil field was not
// supplied by the client.
type InvoiceInput struct {
	ClientName *string
	Amount     *string
	DateIssued *string
	DueDate    *string
	Status     *string
}

// InvoiceService manages invoices on behalf of their owner.
type InvoiceService struct {
	db   domain.Transactor
	gate *EntitlementGate
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(db domain.Transactor, gate *EntitlementGate) *InvoiceService {
	return &InvoiceService{db: db, gate: gate}
}

// List returns the caller's invoices.
func (s *InvoiceService) List(ctx context.Context, userID int64) ([]domain.Invoice, error) {
	return s.db.Invoices().ListByOwner(ctx, userID)
}

// Get returns one of the caller's invoices. Invoices of other users are
// reported as ErrNotFound.
func (s *InvoiceService) Get(ctx context.Context, userID, id int64) (*domain.Invoice, error) {
	return s.db.Invoices().GetForOwner(ctx, userID, id)
}

// Create validates the input, consults the entitlement gate and stores the
// invoice for the caller. The quota count and the insert share a transaction.
func (s *InvoiceService) Create(ctx context.Context, userID int64, in InvoiceInput) (*domain.Invoice, error) {
	inv := &domain.Invoice{Status: domain.InvoiceStatusPending}
	if err := applyInvoiceInput(inv, in, false); err != nil {
		return nil, err
	}
	inv.UserID = userID

	err := s.db.WithinTx(ctx, func(repos domain.Repositories) error {
		decision, err := s.gate.CheckInvoiceCreate(ctx, repos, userID)
		if err != nil {
			return err
		}
		if err := decision.Err(); err != nil {
			return err
		}
		return repos.Invoices().Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Update modifies one of the caller's invoices. With partial set, only the
// supplied fields change; otherwise every required field must be present.
func (s *InvoiceService) Update(ctx context.Context, userID, id int64, in InvoiceInput, partial bool) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := s.db.WithinTx(ctx, func(repos domain.Repositories) error {
		var err error
		inv, err = repos.Invoices().GetForOwner(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := applyInvoiceInput(inv, in, partial); err != nil {
			return err
		}
		return repos.Invoices().UpdateForOwner(ctx, userID, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Delete removes one of the caller's invoices.
func (s *InvoiceService) Delete(ctx context.Context, userID, id int64) error {
	return s.db.Invoices().DeleteForOwner(ctx, userID, id)
}

func applyInvoiceInput(inv *domain.Invoice, in InvoiceInput, partial bool) error {
	if in.ClientName != nil || !partial {
		name, err := requiredString("client_name", in.ClientName, maxClientNameLength)
		if err != nil {
			return err
		}
		inv.ClientName = name
	}

	if in.Amount != nil || !partial {
		if in.Amount == nil {
			return domain.NewValidationError("amount", "this field is required")
		}
		amount, err := domain.ParseAmount(*in.Amount)
		if err != nil {
			return domain.NewValidationError("amount", err.Error())
		}
		inv.Amount = amount
	}

	if in.DateIssued != nil || !partial {
		d, err := parseDate("date_issued", in.DateIssued)
		if err != nil {
			return err
		}
		inv.DateIssued = d
	}

	if in.DueDate != nil || !partial {
		d, err := parseDate("due_date", in.DueDate)
		if err != nil {
			return err
		}
		inv.DueDate = d
	}

	// Status is optional even on full updates and keeps its current value.
	if in.Status != nil {
		status := domain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
		if !status.Valid() {
			return domain.NewValidationError("status", fmt.Sprintf("%q is not a valid choice", *in.Status))
		}
		inv.Status = status
	}
	return nil
}

func requiredString(field string, v *string, maxLen int) (string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", domain.NewValidationError(field, "this field is required")
	}
	s := strings.TrimSpace(*v)
	if utf8.RuneCountInString(s) > maxLen {
		return "", domain.NewValidationError(field, fmt.Sprintf("ensure this field has no more than %d characters", maxLen))
	}
	return s, nil
}

func parseDate(field string, v *string) (time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return time.Time{}, domain.NewValidationError(field, "this field is required")
	}
	d, err := time.Parse(domain.DateLayout, strings.TrimSpace(*v))
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "date has wrong format, use YYYY-MM-DD")
	}
	return d, nil
}
