package config

import (
	"context"
	"database/sql"
	"fmt"
)

// AdapterConfig is one row of the adapters table.
type AdapterConfig struct {
	Prefix  string
	Enabled bool
	Host    string
	Port    int
}

// EnabledPrefixes returns the prefixes of all adapters currently enabled.
func (s *Store) EnabledPrefixes(ctx context.Context) ([]string, error) {
	rows, err := s.QueryContext(ctx, `SELECT prefix FROM adapters WHERE enabled = 1 ORDER BY prefix`)
	if err != nil {
		return nil, fmt.Errorf("config: query enabled adapters: %w", err)
	}
	defer rows.Close()

	var prefixes []string
	for rows.Next() {
		var prefix string
		if err := rows.Scan(&prefix); err != nil {
			return nil, fmt.Errorf("config: scan prefix: %w", err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, rows.Err()
}

// GetAdapterConfig returns the configuration row for prefix.
func (s *Store) GetAdapterConfig(ctx context.Context, prefix string) (AdapterConfig, error) {
	var cfg AdapterConfig
	var enabled int
	err := s.QueryRowContext(ctx, `
		SELECT prefix, enabled, host, port FROM adapters WHERE prefix = ?
	`, prefix).Scan(&cfg.Prefix, &enabled, &cfg.Host, &cfg.Port)
	if err == sql.ErrNoRows {
		return AdapterConfig{}, fmt.Errorf("config: no adapter config for prefix %q: %w", prefix, sql.ErrNoRows)
	}
	if err != nil {
		return AdapterConfig{}, fmt.Errorf("config: get adapter config: %w", err)
	}
	cfg.Enabled = enabled != 0
	return cfg, nil
}

// SetEnabled flips the enabled flag for an adapter prefix.
func (s *Store) SetEnabled(ctx context.Context, prefix string, enabled bool) error {
	res, err := s.ExecContext(ctx, `
		UPDATE adapters SET enabled = ?, updated_at = datetime('now') WHERE prefix = ?
	`, boolToInt(enabled), prefix)
	if err != nil {
		return fmt.Errorf("config: set enabled: %w", err)
	}
	return requireRowAffected(res, prefix)
}

// SetConnection updates the host/port an adapter connects to.
func (s *Store) SetConnection(ctx context.Context, prefix string, host string, port int) error {
	res, err := s.ExecContext(ctx, `
		UPDATE adapters SET host = ?, port = ?, updated_at = datetime('now') WHERE prefix = ?
	`, host, port, prefix)
	if err != nil {
		return fmt.Errorf("config: set connection: %w", err)
	}
	return requireRowAffected(res, prefix)
}

func requireRowAffected(res sql.Result, prefix string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("config: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("config: no adapter config for prefix %q: %w", prefix, sql.ErrNoRows)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
