package domain

import (
	"context"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// Valid reports whether s is one of the known invoice statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Invoice is a bill issued by its owner to a client.
type Invoice struct {
	ID         int64
	UserID     int64
	ClientName string
	Amount     Amount
	DateIssued time.Time // calendar date, UTC midnight
	DueDate    time.Time // calendar date, UTC midnight
	Status     InvoiceStatus
	CreatedAt  time.Time
}

// InvoiceRepository is the ownership-scoped invoice store.
type InvoiceRepository interface {
	OwnedRepository[Invoice]
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
}
