package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/daemon"
	"github.com/theirongolddev/sobres/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonRate         int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve the ledger read-only over HTTP with an SSE event stream",
	Long: "Serve balances, transactions and monthly summaries over HTTP. The daemon\n" +
		"polls the store and streams an event whenever another sobres process\n" +
		"saves a change. It never writes.",
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

func init() {
	defaults := config.DefaultConfig().Server

	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", defaults.Addr, "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", time.Duration(defaults.IntervalSec)*time.Second,
		"Store polling interval (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.DefaultDataDir(), "sobresd.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.DefaultDataDir(), "sobresd.log"),
		"Log file path for detached mode")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", defaults.EventsBuffer, "Max in-memory events retained")
	pf.IntVar(&flagDaemonRate, "rate", defaults.RatePerSec, "Requests per second allowed per client")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonConfig merges the [server] config section with any flags given
// on the command line.
func daemonConfig(cmd *cobra.Command, cfg config.Config) daemon.Config {
	dc := daemon.Config{
		Namespace:    cfg.General.Namespace,
		Backend:      cfg.General.Backend,
		DataDir:      cfg.DataDir(),
		Interval:     cfg.Interval(),
		Addr:         cfg.Server.Addr,
		EventsBuffer: cfg.Server.EventsBuffer,
		RatePerSec:   cfg.Server.RatePerSec,
	}
	changed := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}
	if changed("addr") {
		dc.Addr = flagDaemonAddr
	}
	if changed("interval") {
		dc.Interval = flagDaemonInterval
	}
	if changed("events-buffer") {
		dc.EventsBuffer = flagDaemonEventsBuffer
	}
	if changed("rate") {
		dc.RatePerSec = flagDaemonRate
	}
	return dc
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dc := daemonConfig(cmd, cfg)

	backend, err := store.ParseBackend(dc.Backend)
	if err != nil {
		return err
	}
	if backend == store.BackendMemory {
		return errors.New("the daemon needs a persistent backend (sqlite or bolt)")
	}

	pid := pidFile(flagDaemonPIDFile)
	if err := pid.claim(); err != nil {
		return err
	}

	if flagDaemonDetach {
		return startDaemonDetached(dc)
	}
	return runDaemonForeground(cfg, dc, backend, pid)
}

func startDaemonDetached(dc daemon.Config) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, append(filterDetachArg(os.Args[1:]), "--child")...) //nolint:gosec // re-runs the current invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d) for %q\n", child.Process.Pid, dc.Namespace)
	fmt.Printf("  PID file: %s\n", flagDaemonPIDFile)
	fmt.Printf("  API: http://%s/v1/status\n", dc.Addr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground(cfg config.Config, dc daemon.Config, backend store.Backend, pid pidFile) error {
	err := pid.write(daemonRecord{
		PID:       os.Getpid(),
		Addr:      dc.Addr,
		StartedAt: time.Now(),
		Namespace: dc.Namespace,
		Backend:   dc.Backend,
		DataDir:   dc.DataDir,
	})
	if err != nil {
		return err
	}
	defer pid.remove()

	if flagLogLevel == "" {
		cfg.Log.Level = "info"
	}
	source := store.OpenPerLoad(backend, store.DefaultPath(dc.DataDir, backend))
	svc := daemon.New(dc, source, newLogger(cfg, os.Stderr))

	fmt.Printf("  sobres daemon listening on http://%s\n", dc.Addr)
	fmt.Printf("  Polling %q every %s from %s\n", dc.Namespace, dc.Interval, dc.DataDir)
	fmt.Printf("  Stop with: sobres daemon stop --pid-file %s\n", flagDaemonPIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	rec, err := pidFile(flagDaemonPIDFile).read()
	if err != nil {
		fmt.Println("  Daemon: not running (pid file not found)")
		return nil
	}
	if !processAlive(rec.PID) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", rec.PID)
		return nil
	}

	addr := rec.Addr
	if addr == "" {
		addr = flagDaemonAddr
	}
	fmt.Printf("  Daemon PID: %d (since %s)\n", rec.PID, rec.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchStatus(cmd.Context(), addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Println("  Last poll: pending")
	} else {
		fmt.Printf("  Last poll: %s (%d polls)\n", st.LastPollAt.Local().Format(time.RFC3339), st.PollCount)
	}
	fmt.Printf("  Namespace: %s (%s)\n", st.Namespace, st.Backend)
	fmt.Printf("  Revision: %d, %d transactions\n", st.Summary.Revision, st.Summary.Transactions)
	fmt.Printf("  Available: %s\n", cli.FormatMoney(st.Summary.TotalCents))
	fmt.Printf("  This month: %s in, %s out\n",
		cli.FormatMoney(st.Summary.MonthIncome), cli.FormatMoney(st.Summary.MonthExpense))
	fmt.Printf("  Events: %d buffered, %d subscribers\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func fetchStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := pidFile(flagDaemonPIDFile).stop(8 * time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
