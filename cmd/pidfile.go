package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// daemonRecord is what a running daemon writes to its pid file.
type daemonRecord struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Namespace string    `json:"namespace"`
	Backend   string    `json:"backend"`
	DataDir   string    `json:"data_dir"`
}

// pidFile tracks the daemon process across invocations.
type pidFile string

func (p pidFile) read() (daemonRecord, error) {
	var rec daemonRecord
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(string(p))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil || rec.PID <= 0 {
		return rec, fmt.Errorf("invalid pid file %s", p)
	}
	return rec, nil
}

func (p pidFile) write(rec daemonRecord) error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(string(p), append(data, '\n'), 0o600)
}

func (p pidFile) remove() {
	_ = os.Remove(string(p))
}

// claim fails if a live daemon owns the file. A stale file is removed.
func (p pidFile) claim() error {
	rec, err := p.read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(rec.PID):
		return fmt.Errorf("daemon already running (pid %d)", rec.PID)
	}
	p.remove()
	return nil
}

// stop sends SIGTERM and waits up to timeout for the process to exit.
func (p pidFile) stop(timeout time.Duration) (int, error) {
	rec, err := p.read()
	if err != nil {
		return 0, errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(rec.PID)
	if err != nil {
		return rec.PID, fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return rec.PID, fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(rec.PID) {
			p.remove()
			return rec.PID, nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return rec.PID, fmt.Errorf("daemon (pid %d) did not exit in time", rec.PID)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
