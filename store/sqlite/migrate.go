/*
migrate.go - Versioned schema migrations

PURPOSE:
  Brings an older database up to the current shape via an explicit, ordered
  list of migration steps keyed by target version. The stored version lives
  in meta.schema_version and only ever increases. Running Migrate on an
  already-current store is a no-op, so it is safe on every startup.

VERSIONS:
  1: initial schema - products, legacy sales(date, total), meta
  2: rebuild sales with sale_id TEXT PRIMARY KEY (the idempotency token),
     backfilling generated UUIDs for legacy rows

Each step runs inside the same transaction that bumps the version marker, so
a failed migration leaves the store at its previous version.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

type migration struct {
	version int
	apply   func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, apply: migrateInitial},
	{version: 2, apply: migrateSaleIDs},
}

// Migrate applies all pending migration steps in order. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The meta table must exist before the version can be read.
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}

	current, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		if err := m.apply(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES ('schema_version', ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, strconv.Itoa(m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the stored schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storedVersion(ctx)
}

func (s *Store) storedVersion(ctx context.Context) (int, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = 'schema_version'").Scan(&value)
	if err == sql.ErrNoRows {
		// Legacy databases predate the meta marker: if a sales table
		// already exists it is the v1 shape, otherwise the store is new.
		var count int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sales'",
		).Scan(&count)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			return 1, nil
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt schema_version %q: %w", value, err)
	}
	return v, nil
}

func migrateInitial(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			name  TEXT PRIMARY KEY,
			price INTEGER NOT NULL DEFAULT 0,
			qty   INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS sales (
			date  TEXT NOT NULL,
			total INTEGER NOT NULL
		);
	`)
	return err
}

// migrateSaleIDs rebuilds the sales table around the sale_id primary key.
// SQLite cannot add a primary-key column in place, so the rows are copied
// into the new shape with generated ids. Legacy rows never carried an
// idempotency token; a random UUID preserves them without ever colliding
// with a client-supplied id.
func migrateSaleIDs(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE sales_v2 (
			sale_id TEXT PRIMARY KEY,
			date    TEXT NOT NULL,
			total   INTEGER NOT NULL
		);
		CREATE INDEX idx_sales_date ON sales_v2(date DESC);
	`); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, "SELECT date, total FROM sales")
	if err != nil {
		return err
	}
	defer rows.Close()

	type legacySale struct {
		date  string
		total int64
	}
	var legacy []legacySale
	for rows.Next() {
		var l legacySale
		if err := rows.Scan(&l.date, &l.total); err != nil {
			return err
		}
		legacy = append(legacy, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range legacy {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sales_v2 (sale_id, date, total) VALUES (?, ?, ?)",
			uuid.NewString(), l.date, l.total,
		); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DROP TABLE sales;
		ALTER TABLE sales_v2 RENAME TO sales;
	`); err != nil {
		return err
	}
	return nil
}
