package service_test

import (
	"context"
	"testing"

	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_EnsureProfileIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "ensure")

	first, err := env.profiles.EnsureProfile(ctx, user.ID)
	require.NoError(t, err)
	second, err := env.profiles.EnsureProfile(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, first.UserID)
	assert.Equal(t, first.UserID, second.UserID)
	assert.False(t, second.IsPro)

	var rows int
	require.NoError(t, env.db.SqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE user_id = ?", user.ID).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestProfileService_SetProPersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "persist")

	p, err := env.profiles.SetPro(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(t, p.IsPro)

	again, err := env.profiles.EnsureProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, again.IsPro, "EnsureProfile must not reset an existing profile")

	p, err = env.profiles.SetPro(ctx, user.ID, false)
	require.NoError(t, err)
	assert.False(t, p.IsPro)
}

func TestProfileService_SetProByUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t, "byname")

	p, err := env.profiles.SetProByUsername(ctx, "byname", true)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.True(t, p.IsPro)

	_, err = env.profiles.SetProByUsername(ctx, "ghost", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileService_StatusCountsOwnInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t, "alice")
	bob, _ := env.register(t, "bob")

	for i := 0; i < 3; i++ {
		_, err := env.invoices.Create(ctx, alice.ID, validInvoiceInput("client"))
		require.NoError(t, err)
	}
	_, err := env.invoices.Create(ctx, bob.ID, validInvoiceInput("client"))
	require.NoError(t, err)

	status, err := env.profiles.Status(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Status{IsPro: false, InvoiceCount: 3, Limit: 5}, *status)
}

func TestProfileService_AliceScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t, "alice")

	status, err := env.profiles.Status(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Status{IsPro: false, InvoiceCount: 0, Limit: 5}, *status)

	for i := 0; i < 5; i++ {
		_, err := env.invoices.Create(ctx, alice.ID, validInvoiceInput("client"))
		require.NoError(t, err)
	}
	_, err = env.invoices.Create(ctx, alice.ID, validInvoiceInput("client"))
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	_, err = env.profiles.SetPro(ctx, alice.ID, true)
	require.NoError(t, err)

	status, err = env.profiles.Status(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, status.IsPro)

	_, err = env.invoices.Create(ctx, alice.ID, validInvoiceInput("client"))
	require.NoError(t, err)
}
