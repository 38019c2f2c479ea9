// Package store persists ledger state. Each namespace holds one record,
// written wholesale after every change and read wholesale at startup.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/theirongolddev/sobres/internal/ledger"
)

// ErrNotFound is returned when a namespace has no saved state.
var ErrNotFound = errors.New("no saved state")

// Backend names a storage implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendBolt   Backend = "bolt"
	BackendMemory Backend = "memory"
)

// Backends lists the selectable backends.
var Backends = []Backend{BackendSQLite, BackendBolt, BackendMemory}

// Record is a saved ledger state. Revision increases by one on every save.
type Record struct {
	State     ledger.State
	Revision  int64
	UpdatedAt time.Time
}

// Store is implemented by every backend. Saves are last-write-wins.
type Store interface {
	Load(ctx context.Context, namespace string) (Record, error)
	Save(ctx context.Context, namespace string, st ledger.State) error
	Namespaces(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, namespace string) error
	Close() error
}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown storage backend %q (want sqlite, bolt or memory)", s)
}

// DefaultPath returns the database file for a backend inside dir.
func DefaultPath(dir string, b Backend) string {
	switch b {
	case BackendBolt:
		return filepath.Join(dir, "ledger.bolt")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(dir, "ledger.db")
	}
}

// Open opens the backend at path.
func Open(b Backend, path string) (Store, error) {
	switch b {
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendBolt:
		return OpenBolt(path)
	case BackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", b)
}

func encodeState(st ledger.State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding ledger state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (ledger.State, error) {
	var st ledger.State
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decoding ledger state: %w", err)
	}
	return st, nil
}

// Loader reads saved state.
type Loader interface {
	Load(ctx context.Context, namespace string) (Record, error)
}

type perLoad struct {
	backend Backend
	path    string
}

// OpenPerLoad returns a Loader that opens the backend for every Load and
// closes it afterwards, so long-running readers do not hold the bolt file
// lock between reads.
func OpenPerLoad(b Backend, path string) Loader {
	return perLoad{backend: b, path: path}
}

func (p perLoad) Load(ctx context.Context, namespace string) (Record, error) {
	s, err := Open(p.backend, p.path)
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = s.Close() }()
	return s.Load(ctx, namespace)
}
