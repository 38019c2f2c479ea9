package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/theirongolddev/sobres/internal/ledger"

	_ "modernc.org/sqlite" // register sqlite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite stores ledger state in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at dbPath and brings its
// schema up to date.
func OpenSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}
	return &SQLite{db: db}, nil
}

// runMigrations uses its own connection: closing the migrator closes the
// database it was given.
func runMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer func() { _ = migrateDB.Close() }()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load reads the state saved under namespace.
func (s *SQLite) Load(ctx context.Context, namespace string) (Record, error) {
	var (
		body      string
		updatedAt string
		rec       Record
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, revision, updated_at FROM ledger_state WHERE namespace = ?`, namespace,
	).Scan(&body, &rec.Revision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading %q: %w", namespace, err)
	}

	rec.State, err = decodeState([]byte(body))
	if err != nil {
		return Record{}, err
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return rec, nil
}

// Save replaces the state under namespace.
func (s *SQLite) Save(ctx context.Context, namespace string, st ledger.State) error {
	body, err := encodeState(st)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `INSERT INTO ledger_state (namespace, body, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			body = excluded.body,
			revision = ledger_state.revision + 1,
			updated_at = excluded.updated_at`,
		namespace, string(body), now,
	)
	if err != nil {
		return fmt.Errorf("saving %q: %w", namespace, err)
	}
	return nil
}

// Namespaces lists every saved namespace in name order.
func (s *SQLite) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT namespace FROM ledger_state ORDER BY namespace`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Delete removes a namespace. Deleting a missing namespace is not an error.
func (s *SQLite) Delete(ctx context.Context, namespace string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ledger_state WHERE namespace = ?`, namespace)
	return err
}
