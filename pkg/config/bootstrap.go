package config

import (
	"context"
	"database/sql"
)

// knownPrefixes are the adapter prefixes bootstrapped with a disabled
// default row on first run. Operators flip them on via SetEnabled once
// they've supplied real connection details.
var knownPrefixes = []string{"roon", "lms", "hqp", "upnp"}

// NeedsBootstrap reports whether the adapters table has no rows yet.
func (s *Store) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM adapters`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// Bootstrap inserts a disabled default row for every known adapter
// prefix that isn't already present. Safe to call repeatedly.
func (s *Store) Bootstrap(ctx context.Context) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		for _, prefix := range knownPrefixes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO adapters (prefix, enabled, host, port)
				VALUES (?, 0, '', 0)
				ON CONFLICT(prefix) DO NOTHING
			`, prefix)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
