package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/mtaabiz/internal/domain"
)

const invoiceColumns = `id, user_id, client_name, amount_cents, date_issued, due_date, status, created_at`

// InvoiceRepository implements domain.InvoiceRepository using SQLite.
// Every query is filtered by the owning user id.
type InvoiceRepository struct {
	db querier
}

// NewInvoiceRepository creates a new SQLite-backed InvoiceRepository.
func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db.SqlDB}
}

func (r *InvoiceRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = ? ORDER BY id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *InvoiceRepository) GetForOwner(ctx context.Context, ownerID, id int64) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ? AND user_id = ?`, id, ownerID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM invoices WHERE user_id = ?", ownerID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (user_id, client_name, amount_cents, date_issued, due_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.UserID, inv.ClientName, inv.Amount.Cents(),
		inv.DateIssued.Format(domain.DateLayout), inv.DueDate.Format(domain.DateLayout),
		string(inv.Status), now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	inv.ID = id
	inv.CreatedAt = now
	return nil
}

func (r *InvoiceRepository) UpdateForOwner(ctx context.Context, ownerID int64, inv *domain.Invoice) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET client_name = ?, amount_cents = ?, date_issued = ?, due_date = ?, status = ?
		 WHERE id = ? AND user_id = ?`,
		inv.ClientName, inv.Amount.Cents(),
		inv.DateIssued.Format(domain.DateLayout), inv.DueDate.Format(domain.DateLayout),
		string(inv.Status), inv.ID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return expectOneRow(result)
}

func (r *InvoiceRepository) DeleteForOwner(ctx context.Context, ownerID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return expectOneRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv              domain.Invoice
		cents            int64
		issued, due, sts string
	)
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.ClientName, &cents, &issued, &due, &sts, &inv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	var err error
	if inv.DateIssued, err = time.Parse(domain.DateLayout, issued); err != nil {
		return nil, fmt.Errorf("parse date_issued of invoice %d: %w", inv.ID, err)
	}
	if inv.DueDate, err = time.Parse(domain.DateLayout, due); err != nil {
		return nil, fmt.Errorf("parse due_date of invoice %d: %w", inv.ID, err)
	}
	inv.Amount = domain.Amount(cents)
	inv.Status = domain.InvoiceStatus(sts)
	return &inv, nil
}

// expectOneRow maps a zero-row UPDATE/DELETE to ErrNotFound.
func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
