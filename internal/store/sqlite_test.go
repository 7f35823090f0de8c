package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func customers(names ...string) []model.PrioritizedCustomer {
	out := make([]model.PrioritizedCustomer, len(names))
	for i, n := range names {
		out[i] = model.PrioritizedCustomer{
			CompanyName: n,
			Industry:    "Manufacturing",
			Revenue:     "$10M",
			Size:        "50",
		}
	}
	return out
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_InsertAndListEvents(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.InsertEvents(ctx, sampleEvents(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = st.InsertEvents(ctx, []model.CandidateEvent{{Name: "Other", URL: "https://o.org", Category: "News"}}, "https://globex.com")
	require.NoError(t, err)

	events, err := st.ListEvents(ctx, "https://acme.com", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "https://acme.com", e.RootURL)
		assert.NotZero(t, e.ID)
		assert.WithinDuration(t, time.Now().UTC(), e.CreateTime, time.Minute)
	}

	all, err := st.ListEvents(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_InsertCustomersKeepsOptionalFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch := customers("Acme", "Globex")
	batch[0].StakeholderEmail = "dana@acme.com"
	batch[0].Reasoning = "Buys film in bulk"

	n, err := st.InsertCustomers(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := st.ListCustomers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	byName := map[string]model.StoredCustomer{}
	for _, c := range stored {
		byName[c.CompanyName] = c
	}
	assert.Equal(t, "dana@acme.com", byName["Acme"].StakeholderEmail)
	assert.Equal(t, "Buys film in bulk", byName["Acme"].Reasoning)
	assert.Equal(t, "", byName["Globex"].StakeholderEmail)
}

func TestSQLite_DoesNotTruncate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	names := make([]string, 60)
	for i := range names {
		names[i] = "Company"
	}
	n, err := st.InsertCustomers(ctx, customers(names...))
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	stored, err := st.ListCustomers(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, stored, 60)
}

func TestSQLite_BatchIsAllOrNothing(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.db.ExecContext(ctx, `
		CREATE TRIGGER reject_boom BEFORE INSERT ON potential_customer
		WHEN NEW.company_name = 'Boom'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END;`)
	require.NoError(t, err)

	n, err := st.InsertCustomers(ctx, customers("Acme", "Globex", "Boom", "Initech"))
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "sqlite: insert customers")

	stored, err := st.ListCustomers(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSQLite_ListLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.InsertCustomers(ctx, customers("A", "B", "C"))
	require.NoError(t, err)

	stored, err := st.ListCustomers(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSQLite_EmptyBatch(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.InsertEvents(context.Background(), nil, "https://acme.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}
