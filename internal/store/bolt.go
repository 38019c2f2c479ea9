package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/theirongolddev/sobres/internal/ledger"
)

const bucketState = "ledger_state"

// boltRecord is the value stored per namespace key.
type boltRecord struct {
	Revision  int64           `json:"revision"`
	UpdatedAt time.Time       `json:"updatedAt"`
	State     json.RawMessage `json:"state"`
}

// Bolt stores ledger state in a bbolt file.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketState))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket %s: %w", bucketState, err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Load reads the state saved under namespace.
func (b *Bolt) Load(ctx context.Context, namespace string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var raw boltRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketState)).Get([]byte(namespace))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &raw)
	})
	if err != nil {
		return Record{}, err
	}

	st, err := decodeState(raw.State)
	if err != nil {
		return Record{}, err
	}
	return Record{State: st, Revision: raw.Revision, UpdatedAt: raw.UpdatedAt}, nil
}

// Save replaces the state under namespace.
func (b *Bolt) Save(ctx context.Context, namespace string, st ledger.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := encodeState(st)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucketState))

		var prev boltRecord
		if data := bkt.Get([]byte(namespace)); data != nil {
			if err := json.Unmarshal(data, &prev); err != nil {
				return fmt.Errorf("reading %q: %w", namespace, err)
			}
		}

		data, err := json.Marshal(boltRecord{
			Revision:  prev.Revision + 1,
			UpdatedAt: time.Now().UTC(),
			State:     body,
		})
		if err != nil {
			return err
		}
		return bkt.Put([]byte(namespace), data)
	})
}

// Namespaces lists every saved namespace in key order.
func (b *Bolt) Namespaces(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketState)).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

// Delete removes a namespace.
func (b *Bolt) Delete(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketState)).Delete([]byte(namespace))
	})
}
