// Package sqlite stores options in a SQLite table using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"admin-notes-backend/application/ports"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS options (
	name    TEXT PRIMARY KEY,
	value   TEXT NOT NULL,
	version INTEGER NOT NULL
)`

var _ ports.OptionStore = (*OptionStore)(nil)

// OptionStore is a SQLite-backed ports.OptionStore. Values are kept as a JSON
// array in a single row per option.
type OptionStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the database at dsn and creates the options table if needed
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*OptionStore, error) {
	if dsn == "" {
		return nil, errors.New("sqlite dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY within the process.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create options table: %w", err)
	}

	logger.Info("SQLite option store opened", zap.String("dsn", dsn))
	return &OptionStore{db: db, logger: logger}, nil
}

// Get returns the record stored under name
func (s *OptionStore) Get(ctx context.Context, name string) (ports.OptionRecord, error) {
	var (
		raw     string
		version uint64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, version FROM options WHERE name = ?`, name,
	).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.OptionRecord{}, nil
	}
	if err != nil {
		return ports.OptionRecord{}, fmt.Errorf("failed to read option %s: %w", name, err)
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return ports.OptionRecord{}, fmt.Errorf("failed to decode option %s: %w", name, err)
	}
	return ports.OptionRecord{Values: values, Version: version}, nil
}

// Put writes values when the stored version equals expectedVersion
func (s *OptionStore) Put(ctx context.Context, name string, values []string, expectedVersion uint64) (uint64, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return 0, fmt.Errorf("failed to encode option %s: %w", name, err)
	}

	next := expectedVersion + 1
	var result sql.Result
	if expectedVersion == 0 {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO options (name, value, version) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
			name, string(raw), next,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE options SET value = ?, version = ? WHERE name = ? AND version = ?`,
			string(raw), next, name, expectedVersion,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write option %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to write option %s: %w", name, err)
	}
	if affected == 0 {
		return 0, ports.ErrVersionConflict
	}
	return next, nil
}

// Ping checks the database connection
func (s *OptionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *OptionStore) Close() error {
	return s.db.Close()
}
