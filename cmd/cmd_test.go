package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/model"
)

func TestParseAllocations(t *testing.T) {
	set, err := parseAllocations(model.DefaultCategories,
		[]string{"necesidades=60", "Ahorro=20%", "educacion=10", "4=5", "otros=5"})
	require.NoError(t, err)
	require.Len(t, set, 5)
	assert.Equal(t, model.Allocation{CategoryID: 1, Name: "Necesidades", Value: 60}, set[0])
	assert.Equal(t, 20, set[1].Value)
	assert.Equal(t, "Educación", set[2].Name)
	assert.Equal(t, model.CategoryID(4), set[3].CategoryID)
	assert.Equal(t, 100, model.AllocationTotal(set))
}

func TestParseAllocationsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"necesidades"},
		{"vacaciones=10"},
		{"ahorro=diez"},
	} {
		_, err := parseAllocations(model.DefaultCategories, args)
		assert.Error(t, err, "%v", args)
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("#42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, s := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(s)
		assert.Error(t, err, s)
	}
}

func TestSummaryMonth(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() { flagSummaryMonth, flagSummaryYear = 0, 0 })

	y, m, err := summaryMonth(now)
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.March, m)

	flagSummaryMonth, flagSummaryYear = 11, 2023
	y, m, err = summaryMonth(now)
	require.NoError(t, err)
	assert.Equal(t, 2023, y)
	assert.Equal(t, time.November, m)

	flagSummaryMonth = 13
	_, _, err = summaryMonth(now)
	assert.Error(t, err)
}

func TestParseCategoryListsChoices(t *testing.T) {
	c, err := parseCategory(model.DefaultCategories, "ENTRETENIMIENTO")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryID(4), c.ID)

	_, err = parseCategory(model.DefaultCategories, "viajes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Necesidades")
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", "x", "--detach=true"})
	assert.Equal(t, []string{"daemon", "--addr", "x"}, got)
}

func TestDaemonConfigPrefersFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.General.Namespace = "casa"
	cfg.General.DataDir = t.TempDir()

	dc := daemonConfig(daemonCmd, cfg)
	assert.Equal(t, "casa", dc.Namespace)
	assert.Equal(t, cfg.Server.Addr, dc.Addr)
	assert.Equal(t, cfg.Interval(), dc.Interval)

	require.NoError(t, daemonCmd.PersistentFlags().Set("addr", "127.0.0.1:9999"))
	t.Cleanup(func() {
		_ = daemonCmd.PersistentFlags().Set("addr", config.DefaultConfig().Server.Addr)
		daemonCmd.PersistentFlags().Lookup("addr").Changed = false
	})
	dc = daemonConfig(daemonCmd, cfg)
	assert.Equal(t, "127.0.0.1:9999", dc.Addr)
}

func TestPIDFile(t *testing.T) {
	p := pidFile(filepath.Join(t.TempDir(), "run", "sobresd.pid"))
	require.NoError(t, p.claim(), "missing file is free")

	rec := daemonRecord{PID: os.Getpid(), Addr: "127.0.0.1:8787", Namespace: "default", Backend: "sqlite"}
	require.NoError(t, p.write(rec))

	got, err := p.read()
	require.NoError(t, err)
	assert.Equal(t, rec.PID, got.PID)
	assert.Equal(t, rec.Addr, got.Addr)

	assert.Error(t, p.claim(), "the test process is alive")

	p.remove()
	_, err = p.read()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPIDFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sobresd.pid")
	require.NoError(t, os.WriteFile(path, []byte("1234\n"), 0o600))

	_, err := pidFile(path).read()
	assert.Error(t, err)
}
