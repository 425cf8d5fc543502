package timer

import (
	"fmt"
	"log/slog"
	"time"
)

// Storage is the durable backing for payment timers. *store.DB satisfies it.
type Storage interface {
	UpsertTimer(orderID string, endTimeMS int64) error
	GetTimer(orderID string) (int64, bool, error)
	DeleteTimer(orderID string) error
}

// State is a stored countdown entry. EndTime is absolute, not a remaining
// duration, so it survives restarts without drift.
type State struct {
	OrderID string
	EndTime time.Time
}

// Countdown is a remaining-time readout.
type Countdown struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Store persists one countdown per order. It is synchronous and touches no
// network, so callers may read it on every tick.
type Store struct {
	storage Storage
	now     func() time.Time
}

// NewStore creates a timer store over the given storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage, now: time.Now}
}

// NewStoreWithClock creates a timer store with an injectable clock (for testing).
func NewStoreWithClock(storage Storage, now func() time.Time) *Store {
	return &Store{storage: storage, now: now}
}

// Set stores a countdown ending duration from now and returns the absolute
// end time. Setting again for the same order overwrites the previous entry.
func (s *Store) Set(orderID string, duration time.Duration) (time.Time, error) {
	endTime := s.now().Add(duration)
	if err := s.storage.UpsertTimer(orderID, endTime.UnixMilli()); err != nil {
		return time.Time{}, err
	}

	slog.Info("payment timer set",
		"orderID", orderID,
		"duration", duration,
		"endTime", endTime.UTC().Format(time.RFC3339),
	)
	return endTime, nil
}

// Get returns the stored timer for an order, or nil when none exists.
func (s *Store) Get(orderID string) (*State, error) {
	endMS, ok, err := s.storage.GetTimer(orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &State{OrderID: orderID, EndTime: time.UnixMilli(endMS)}, nil
}

// Remaining returns the countdown left on an order's timer, or nil when no
// timer exists. When the countdown reaches zero the stored entry is cleared
// as a side effect before 0:00 is returned, so no stale expired timer
// lingers.
func (s *Store) Remaining(orderID string) (*Countdown, error) {
	state, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}

	remaining := state.EndTime.Sub(s.now())
	if remaining <= 0 {
		if err := s.Clear(orderID); err != nil {
			return nil, fmt.Errorf("self-clear expired timer: %w", err)
		}
		slog.Info("payment timer expired", "orderID", orderID)
		return &Countdown{Minutes: 0, Seconds: 0}, nil
	}

	totalSeconds := int(remaining / time.Second)
	return &Countdown{
		Minutes: totalSeconds / 60,
		Seconds: totalSeconds % 60,
	}, nil
}

// Clear removes an order's timer.
func (s *Store) Clear(orderID string) error {
	return s.storage.DeleteTimer(orderID)
}
