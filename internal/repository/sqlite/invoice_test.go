package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/msomdec/mtaabiz/internal/repository/sqlite"
)

func newTestInvoice(ownerID int64) *domain.Invoice {
	return &domain.Invoice{
		UserID:     ownerID,
		ClientName: "Mama Mboga",
		Amount:     12345,
		DateIssued: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:     domain.InvoiceStatusPending,
	}
}

func TestInvoiceRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewInvoiceRepository(db)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")

	inv := newTestInvoice(owner.ID)
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.ID == 0 || inv.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt to be set, got %+v", inv)
	}

	got, err := repo.GetForOwner(ctx, owner.ID, inv.ID)
	if err != nil {
		t.Fatalf("GetForOwner: %v", err)
	}
	if got.ClientName != inv.ClientName {
		t.Fatalf("expected client %q, got %q", inv.ClientName, got.ClientName)
	}
	if got.Amount != 12345 || got.Amount.String() != "123.45" {
		t.Fatalf("expected amount 123.45, got %s", got.Amount)
	}
	if !got.DateIssued.Equal(inv.DateIssued) || !got.DueDate.Equal(inv.DueDate) {
		t.Fatalf("dates did not round-trip: %v %v", got.DateIssued, got.DueDate)
	}
	if got.Status != domain.InvoiceStatusPending {
		t.Fatalf("expected PENDING, got %s", got.Status)
	}
}

func TestInvoiceRepository_OwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewInvoiceRepository(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	for range 3 {
		if err := repo.Create(ctx, newTestInvoice(alice.ID)); err != nil {
			t.Fatalf("Create alice: %v", err)
		}
	}
	bobs := newTestInvoice(bob.ID)
	if err := repo.Create(ctx, bobs); err != nil {
		t.Fatalf("Create bob: %v", err)
	}

	list, err := repo.ListByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 invoices for alice, got %d", len(list))
	}
	for _, inv := range list {
		if inv.UserID != alice.ID {
			t.Fatalf("listing for alice returned invoice owned by %d", inv.UserID)
		}
	}

	n, err := repo.CountByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("CountByOwner: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected count 3, got %d", n)
	}

	_, errOther := repo.GetForOwner(ctx, alice.ID, bobs.ID)
	_, errMissing := repo.GetForOwner(ctx, alice.ID, 99999)
	if !errors.Is(errOther, domain.ErrNotFound) || !errors.Is(errMissing, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for both, got %v and %v", errOther, errMissing)
	}
	if errOther.Error() != errMissing.Error() {
		t.Fatalf("foreign and missing rows must be indistinguishable: %q vs %q", errOther, errMissing)
	}
}

func TestInvoiceRepository_UpdateAndDeleteForOwner(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewInvoiceRepository(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	mallory := createTestUser(t, db, "mallory")

	inv := newTestInvoice(alice.ID)
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	inv.Status = domain.InvoiceStatusPaid
	if err := repo.UpdateForOwner(ctx, mallory.ID, inv); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating someone else's invoice, got %v", err)
	}
	if err := repo.UpdateForOwner(ctx, alice.ID, inv); err != nil {
		t.Fatalf("UpdateForOwner: %v", err)
	}
	got, err := repo.GetForOwner(ctx, alice.ID, inv.ID)
	if err != nil {
		t.Fatalf("GetForOwner: %v", err)
	}
	if got.Status != domain.InvoiceStatusPaid {
		t.Fatalf("expected PAID, got %s", got.Status)
	}

	if err := repo.DeleteForOwner(ctx, mallory.ID, inv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting someone else's invoice, got %v", err)
	}
	if err := repo.DeleteForOwner(ctx, alice.ID, inv.ID); err != nil {
		t.Fatalf("DeleteForOwner: %v", err)
	}
	if _, err := repo.GetForOwner(ctx, alice.ID, inv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
