package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// SaveSnapshot upserts the single app-state snapshot row.
func (d *DB) SaveSnapshot(snapshot string) error {
	_, err := d.conn.Exec(
		`INSERT INTO app_state (id, snapshot, updated_at) VALUES (1, ?, datetime('now'))
		 ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		snapshot,
	)
	if err != nil {
		return fmt.Errorf("save app state snapshot: %w", err)
	}

	slog.Debug("app state snapshot saved", "bytes", len(snapshot))
	return nil
}

// LoadSnapshot returns the persisted snapshot, or ok=false when none exists.
func (d *DB) LoadSnapshot() (string, bool, error) {
	var snapshot string
	err := d.conn.QueryRow("SELECT snapshot FROM app_state WHERE id = 1").Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load app state snapshot: %w", err)
	}
	return snapshot, true, nil
}

// DeleteSnapshot removes the persisted snapshot if present.
func (d *DB) DeleteSnapshot() error {
	if _, err := d.conn.Exec("DELETE FROM app_state WHERE id = 1"); err != nil {
		return fmt.Errorf("delete app state snapshot: %w", err)
	}
	slog.Info("app state snapshot deleted")
	return nil
}
