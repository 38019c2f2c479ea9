package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
)

func sampleState(t *testing.T) ledger.State {
	t.Helper()
	l := ledger.New(model.DefaultCategories)
	_, err := l.Add(ledger.TransactionInput{
		Description: "Salario",
		Amount:      model.Units(1000),
		Date:        model.NewDate(2024, 1, 1),
		Type:        model.Income,
	}, nil)
	require.NoError(t, err)
	_, err = l.Add(ledger.TransactionInput{
		Description: "Supermercado",
		Amount:      model.Cents(300, 25),
		Date:        model.NewDate(2024, 1, 5),
		Type:        model.Expense,
		CategoryID:  1,
	}, nil)
	require.NoError(t, err)
	return l.State()
}

func openAll(t *testing.T) map[Backend]Store {
	t.Helper()
	dir := t.TempDir()

	out := make(map[Backend]Store)
	for _, b := range Backends {
		s, err := Open(b, DefaultPath(filepath.Join(dir, string(b)), b))
		require.NoError(t, err, "open %s", b)
		t.Cleanup(func() { _ = s.Close() })
		out[b] = s
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := sampleState(t)

	for b, s := range openAll(t) {
		t.Run(string(b), func(t *testing.T) {
			_, err := s.Load(ctx, "default")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "default", st))

			rec, err := s.Load(ctx, "default")
			require.NoError(t, err)
			assert.Equal(t, st, rec.State)
			assert.Equal(t, int64(1), rec.Revision)
			assert.False(t, rec.UpdatedAt.IsZero())

			restored, err := ledger.Restore(model.DefaultCategories, rec.State)
			require.NoError(t, err)
			assert.Equal(t, restored.Recompute(), restored.Balances())
		})
	}
}

func TestStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	first := sampleState(t)
	second := ledger.New(model.DefaultCategories).State()

	for b, s := range openAll(t) {
		t.Run(string(b), func(t *testing.T) {
			require.NoError(t, s.Save(ctx, "casa", first))
			require.NoError(t, s.Save(ctx, "casa", second))

			rec, err := s.Load(ctx, "casa")
			require.NoError(t, err)
			assert.Empty(t, rec.State.Transactions)
			assert.Equal(t, int64(2), rec.Revision)
		})
	}
}

func TestStoreNamespaces(t *testing.T) {
	ctx := context.Background()
	st := sampleState(t)

	for b, s := range openAll(t) {
		t.Run(string(b), func(t *testing.T) {
			for _, ns := range []string{"work", "default", "casa"} {
				require.NoError(t, s.Save(ctx, ns, st))
			}

			got, err := s.Namespaces(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"casa", "default", "work"}, got)

			require.NoError(t, s.Delete(ctx, "work"))
			require.NoError(t, s.Delete(ctx, "missing"))

			got, err = s.Namespaces(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"casa", "default"}, got)

			_, err = s.Load(ctx, "work")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	st := sampleState(t)

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "default", st))
	require.NoError(t, s.Close())

	// Migrations are already applied on the second open.
	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec, err := s.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, st, rec.State)
}

func TestParseBackend(t *testing.T) {
	for _, b := range Backends {
		got, err := ParseBackend(string(b))
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	_, err := ParseBackend("postgres")
	assert.Error(t, err)
}

func TestOpenPerLoadReleasesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.bolt")
	st := sampleState(t)

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "default", st))
	require.NoError(t, s.Close())

	loader := OpenPerLoad(BackendBolt, path)
	rec, err := loader.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, st, rec.State)

	// The loader closed the file, so a writer can open it again.
	s, err = OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
