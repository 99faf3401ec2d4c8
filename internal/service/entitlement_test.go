package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/msomdec/mtaabiz/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validInvoiceInput(client string) service.InvoiceInput {
	return service.InvoiceInput{
		ClientName: strPtr(client),
		Amount:     strPtr("123.45"),
		DateIssued: strPtr("2024-01-01"),
		DueDate:    strPtr("2024-01-31"),
	}
}

type recordingRecorder struct {
	mu        sync.Mutex
	decisions []service.Decision
}

func (r *recordingRecorder) RecordDecision(d service.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
}

func TestEntitlement_FreeUserCapAtFive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "capped")

	for i := 0; i < service.FreeInvoiceLimit; i++ {
		_, err := env.invoices.Create(ctx, user.ID, validInvoiceInput("client"))
		require.NoError(t, err, "invoice %d", i+1)
	}

	_, err := env.invoices.Create(ctx, user.ID, validInvoiceInput("one too many"))
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	count, err := env.db.Invoices().CountByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, service.FreeInvoiceLimit, count, "rejected create must not persist a row")
}

func TestEntitlement_UpgradeRemovesLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "upgrader")

	for i := 0; i < service.FreeInvoiceLimit; i++ {
		_, err := env.invoices.Create(ctx, user.ID, validInvoiceInput("client"))
		require.NoError(t, err)
	}

	_, err := env.profiles.SetPro(ctx, user.ID, true)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := env.invoices.Create(ctx, user.ID, validInvoiceInput("pro client"))
		require.NoError(t, err)
	}

	count, err := env.db.Invoices().CountByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, service.FreeInvoiceLimit+3, count)
}

func TestEntitlement_DowngradeBlocksFurtherCreates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "downgraded")

	_, err := env.profiles.SetPro(ctx, user.ID, true)
	require.NoError(t, err)
	for i := 0; i < service.FreeInvoiceLimit+1; i++ {
		_, err := env.invoices.Create(ctx, user.ID, validInvoiceInput("client"))
		require.NoError(t, err)
	}

	_, err = env.profiles.SetPro(ctx, user.ID, false)
	require.NoError(t, err)

	_, err = env.invoices.Create(ctx, user.ID, validInvoiceInput("client"))
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestEntitlement_UpdateAndDeleteNotGated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "editor")

	var last *domain.Invoice
	for i := 0; i < service.FreeInvoiceLimit; i++ {
		inv, err := env.invoices.Create(ctx, user.ID, validInvoiceInput("client"))
		require.NoError(t, err)
		last = inv
	}

	_, err := env.invoices.Update(ctx, user.ID, last.ID, service.InvoiceInput{Status: strPtr("PAID")}, true)
	require.NoError(t, err)

	require.NoError(t, env.invoices.Delete(ctx, user.ID, last.ID))

	_, err = env.invoices.Create(ctx, user.ID, validInvoiceInput("back under the limit"))
	assert.NoError(t, err)
}

func TestEntitlement_QuotaIsPerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t, "alice")
	bob, _ := env.register(t, "bob")

	for i := 0; i < service.FreeInvoiceLimit; i++ {
		_, err := env.invoices.Create(ctx, alice.ID, validInvoiceInput("client"))
		require.NoError(t, err)
	}

	_, err := env.invoices.Create(ctx, bob.ID, validInvoiceInput("client"))
	assert.NoError(t, err, "another user's invoices must not count against bob")
}

func TestEntitlement_ConcurrentCreatesRespectLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "burst")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		denied  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.invoices.Create(ctx, user.ID, validInvoiceInput("client"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrQuotaExceeded):
				denied++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, service.FreeInvoiceLimit, created)
	assert.Equal(t, 10-service.FreeInvoiceLimit, denied)
}

func TestEntitlementGate_Decision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := &recordingRecorder{}
	gate := service.NewEntitlementGate(2, rec)
	user, _ := env.register(t, "decider")

	d, err := gate.CheckInvoiceCreate(ctx, env.db, user.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.False(t, d.IsPro)
	assert.Equal(t, 0, d.Used)
	assert.Equal(t, 2, d.Remaining)
	assert.NoError(t, d.Err())

	for i := 0; i < 2; i++ {
		require.NoError(t, env.db.Invoices().Create(ctx, &domain.Invoice{
			UserID: user.ID, ClientName: "c", Status: domain.InvoiceStatusPending,
		}))
	}

	d, err = gate.CheckInvoiceCreate(ctx, env.db, user.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Used)
	assert.Equal(t, 0, d.Remaining)
	assert.NotEmpty(t, d.Reason)
	assert.ErrorIs(t, d.Err(), domain.ErrQuotaExceeded)

	_, err = env.profiles.SetPro(ctx, user.ID, true)
	require.NoError(t, err)

	d, err = gate.CheckInvoiceCreate(ctx, env.db, user.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.IsPro)
	assert.Equal(t, -1, d.Remaining)

	assert.Len(t, rec.decisions, 3)
}

func TestEntitlementGate_MissingProfileTreatedAsFree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A user created without going through registration has no profile.
	user := &domain.User{Username: "legacy", Email: "legacy@example.com", PasswordHash: "x"}
	require.NoError(t, env.db.Users().Create(ctx, user))

	d, err := env.gate.CheckInvoiceCreate(ctx, env.db, user.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.False(t, d.IsPro)

	status, err := env.profiles.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, status.IsPro)
}

func TestEntitlementGate_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.gate.CheckInvoiceCreate(context.Background(), env.db, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
