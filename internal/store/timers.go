package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// UpsertTimer stores the absolute countdown end for an order, overwriting
// any previous entry. At most one timer per order.
func (d *DB) UpsertTimer(orderID string, endTimeMS int64) error {
	_, err := d.conn.Exec(
		`INSERT INTO payment_timers (order_id, end_time_ms) VALUES (?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET end_time_ms = excluded.end_time_ms`,
		orderID, endTimeMS,
	)
	if err != nil {
		return fmt.Errorf("upsert timer for order %s: %w", orderID, err)
	}

	slog.Debug("payment timer stored", "orderID", orderID, "endTimeMS", endTimeMS)
	return nil
}

// GetTimer returns the stored end time for an order, or ok=false when no
// timer exists.
func (d *DB) GetTimer(orderID string) (int64, bool, error) {
	var endTimeMS int64
	err := d.conn.QueryRow(
		"SELECT end_time_ms FROM payment_timers WHERE order_id = ?", orderID,
	).Scan(&endTimeMS)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get timer for order %s: %w", orderID, err)
	}
	return endTimeMS, true, nil
}

// DeleteTimer removes an order's timer if present.
func (d *DB) DeleteTimer(orderID string) error {
	if _, err := d.conn.Exec("DELETE FROM payment_timers WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("delete timer for order %s: %w", orderID, err)
	}
	slog.Debug("payment timer cleared", "orderID", orderID)
	return nil
}
