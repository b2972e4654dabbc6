package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

const (
	schemaVersion    = 1
	schemaVersionKey = "schema_version"
)

// migrate creates the snapshot tables and stamps the schema version. Opening a
// database written by a newer binary fails instead of silently misreading it.
func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	version, found, err := storedVersion(ctx, tx)
	if err != nil {
		return err
	}
	switch {
	case found && version > schemaVersion:
		return fmt.Errorf("snapshot schema version %d is newer than supported %d", version, schemaVersion)
	case !found || version < schemaVersion:
		if err := setVersion(ctx, tx, schemaVersion); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func storedVersion(ctx context.Context, tx *sql.Tx) (int, bool, error) {
	var raw string
	err := tx.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", schemaVersionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return v, true, nil
}

func setVersion(ctx context.Context, tx *sql.Tx, v int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO metadata(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, schemaVersionKey, strconv.Itoa(v))
	if err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}
