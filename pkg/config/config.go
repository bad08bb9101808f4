// Package config is the coordinator's adapter-enable and
// connection-settings store: a SQLite-backed table of which adapters
// (roon, lms, hqp, upnp) are enabled and what host/port each should
// connect to. spec.md §6 deliberately leaves the concrete format of
// this "externally-managed configuration store" out of scope for the
// core; this package gives cmd/bridge something concrete to read at
// startup, in the teacher's migrate-then-bootstrap SQLite idiom.
package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding adapter configuration.
type Store struct {
	*sql.DB
	path string
}

// Open opens or creates the SQLite database at path. If path is empty,
// the default XDG-aware config directory location is used.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("config: determine database path: %w", err)
		}
	}

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("config: create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("config: open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("config: connect to database: %w", err)
	}

	return &Store{DB: sqlDB, path: path}, nil
}

// Path returns the path to the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error { return s.DB.Close() }

// Tx executes fn within a transaction, rolling back on error.
func (s *Store) Tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("config: begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("config: rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("config: commit transaction: %w", err)
	}
	return nil
}

func defaultDBPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "unified-hifi-control", "bridge.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "unified-hifi-control", "bridge.db"), nil
}
