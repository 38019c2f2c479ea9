package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/theirongolddev/sobres/internal/ledger"
)

type memRecord struct {
	body      []byte
	revision  int64
	updatedAt time.Time
}

// Memory keeps state in process memory. It is used by tests and dry runs.
type Memory struct {
	mu   sync.Mutex
	recs map[string]memRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]memRecord)}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Load reads the state saved under namespace.
func (m *Memory) Load(_ context.Context, namespace string) (Record, error) {
	m.mu.Lock()
	rec, ok := m.recs[namespace]
	m.mu.Unlock()
	if !ok {
		return Record{}, ErrNotFound
	}

	st, err := decodeState(rec.body)
	if err != nil {
		return Record{}, err
	}
	return Record{State: st, Revision: rec.revision, UpdatedAt: rec.updatedAt}, nil
}

// Save replaces the state under namespace.
func (m *Memory) Save(_ context.Context, namespace string, st ledger.State) error {
	body, err := encodeState(st)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.recs[namespace]
	m.recs[namespace] = memRecord{body: body, revision: prev.revision + 1, updatedAt: time.Now().UTC()}
	return nil
}

// Namespaces lists every saved namespace in name order.
func (m *Memory) Namespaces(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.recs))
	for ns := range m.recs {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out, nil
}

// Delete removes a namespace.
func (m *Memory) Delete(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, namespace)
	return nil
}
