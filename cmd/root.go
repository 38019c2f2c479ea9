package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/theirongolddev/sobres/internal/budget"
	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagNamespace string
	flagBackend   string
	flagDataDir   string
	flagQuiet     bool
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "sobres",
	Short: "Envelope budgeting in the terminal",
	Long: "Track income and expenses with envelopes: every income is split across\n" +
		"categories by percentage, every expense comes out of one category.",
	SilenceUsage: true,
	RunE:         runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagNamespace, "namespace", "n", "", "Budget profile to use (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "",
		"Storage backend: "+strings.Join(backendNames(), ", ")+" (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory holding the ledger files")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func backendNames() []string {
	names := make([]string, len(store.Backends))
	for i, b := range store.Backends {
		names[i] = string(b)
	}
	return names
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagNamespace != "" {
		cfg.General.Namespace = flagNamespace
	}
	if flagBackend != "" {
		cfg.General.Backend = flagBackend
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	cli.CurrencySymbol = cfg.Display.CurrencySymbol
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	if flagQuiet {
		return logging.New(w, slog.LevelError)
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	return logging.New(w, level)
}

// session is an open budget with the config it was opened with.
type session struct {
	cfg   config.Config
	log   *slog.Logger
	store store.Store
	svc   *budget.Service
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn("closing store", logging.FieldError, err)
	}
}

// openSession is the shared setup used by every command that touches the
// ledger. Callers must Close the session.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, os.Stderr)

	backend, err := store.ParseBackend(cfg.General.Backend)
	if err != nil {
		return nil, err
	}
	dir := cfg.DataDir()
	if backend != store.BackendMemory {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	st, err := store.Open(backend, store.DefaultPath(dir, backend))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}

	svc, err := budget.Open(ctx, st, cfg.General.Namespace, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: logger, store: st, svc: svc}, nil
}

// parseCategory resolves a category flag or argument.
func parseCategory(catalog model.Catalog, s string) (model.Category, error) {
	if c, ok := catalog.Find(s); ok {
		return c, nil
	}
	names := make([]string, len(catalog))
	for i, c := range catalog {
		names[i] = c.Name
	}
	return model.Category{}, fmt.Errorf("unknown category %q (one of: %s)", s, strings.Join(names, ", "))
}
