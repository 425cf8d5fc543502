package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// SaveSession stores the backend session token and verify status.
func (d *DB) SaveSession(token, verifyStatus string) error {
	_, err := d.conn.Exec(
		`INSERT INTO session (id, token, verify_status, updated_at) VALUES (1, ?, ?, datetime('now'))
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, verify_status = excluded.verify_status, updated_at = excluded.updated_at`,
		token, verifyStatus,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	slog.Info("session saved", "verifyStatus", verifyStatus)
	return nil
}

// Session returns the stored token and verify status, or ok=false when no
// session exists.
func (d *DB) Session() (token, verifyStatus string, ok bool, err error) {
	err = d.conn.QueryRow("SELECT token, verify_status FROM session WHERE id = 1").Scan(&token, &verifyStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("load session: %w", err)
	}
	return token, verifyStatus, true, nil
}

// ClearSession removes the stored session row.
func (d *DB) ClearSession() error {
	if _, err := d.conn.Exec("DELETE FROM session WHERE id = 1"); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	slog.Info("session cleared")
	return nil
}

// Token returns the current session token, or "" when logged out.
// Implements the backend client's TokenSource.
func (d *DB) Token() string {
	token, _, ok, err := d.Session()
	if err != nil {
		slog.Warn("failed to read session token", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}
