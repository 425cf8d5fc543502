package state

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/store"
	"github.com/fieldline/paydesk/internal/tabular"
)

// AppState is the process-wide mirror of the backend's last known state.
// It is rehydrated from the persisted snapshot at startup, replaced
// wholesale on every successful API call, and cleared on logout.
type AppState struct {
	User            *models.User             `json:"user"`
	Data            map[string]tabular.Table `json:"data"`
	IsAuthenticated bool                     `json:"isAuthenticated"`
}

// Manager owns the cached AppState. Writers never mutate the cache in
// place: every update goes through Apply's last-write-wins merge and
// replaces the affected slices, so readers only ever see complete tables.
type Manager struct {
	mu      sync.RWMutex
	app     *AppState
	offline bool
	db      *store.DB
}

// NewManager creates a manager hydrated from the persisted snapshot.
// A corrupted snapshot is discarded and the manager starts empty; startup
// never crash-loops on a bad cache.
func NewManager(db *store.DB) *Manager {
	m := &Manager{db: db}

	snapshot, ok, err := db.LoadSnapshot()
	if err != nil {
		slog.Warn("failed to load persisted state, starting empty", "error", err)
		return m
	}
	if !ok {
		slog.Info("no persisted state found, starting empty")
		return m
	}

	var app AppState
	if err := json.Unmarshal([]byte(snapshot), &app); err != nil {
		slog.Warn("persisted state is corrupted, discarding", "error", err)
		if delErr := db.DeleteSnapshot(); delErr != nil {
			slog.Error("failed to discard corrupted snapshot", "error", delErr)
		}
		return m
	}

	m.app = &app
	slog.Info("state hydrated from snapshot",
		"authenticated", app.IsAuthenticated,
		"tables", len(app.Data),
	)
	return m
}

// Apply merges a fresh backend snapshot into the cache and persists the
// result. The merge is last-write-wins: tables present in the payload
// replace the cached copies, tables the server omitted keep their previous
// value. A nil payload is a no-op.
func (m *Manager) Apply(payload *backend.AppDataPayload) {
	if payload == nil {
		return
	}

	m.mu.Lock()
	if m.app == nil {
		m.app = &AppState{Data: make(map[string]tabular.Table)}
	}
	if m.app.Data == nil {
		m.app.Data = make(map[string]tabular.Table)
	}

	if payload.User != nil {
		m.app.User = payload.User
	}
	for name, table := range payload.Tables {
		m.app.Data[name] = table
	}
	m.app.IsAuthenticated = m.app.User != nil && m.db.Token() != ""

	applied := len(payload.Tables)
	m.persistLocked()
	m.mu.Unlock()

	slog.Debug("state applied", "tables", applied, "userUpdated", payload.User != nil)
}

// Clear nulls the cache, deletes the persisted snapshot, and drops the
// stored session. Any read afterwards is unauthenticated.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.app = nil
	m.offline = false
	m.mu.Unlock()

	if err := m.db.DeleteSnapshot(); err != nil {
		slog.Error("failed to delete persisted state", "error", err)
	}
	if err := m.db.ClearSession(); err != nil {
		slog.Error("failed to clear session", "error", err)
	}

	slog.Info("app state cleared")
}

// Snapshot returns a copy of the cached state, or nil when logged out.
// Table values share row storage with the cache; callers treat them as
// read-only.
func (m *Manager) Snapshot() *AppState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.app == nil {
		return nil
	}

	data := make(map[string]tabular.Table, len(m.app.Data))
	for name, table := range m.app.Data {
		data[name] = table
	}

	return &AppState{
		User:            m.app.User,
		Data:            data,
		IsAuthenticated: m.app.IsAuthenticated,
	}
}

// User returns the cached principal, or nil when logged out.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.app == nil {
		return nil
	}
	return m.app.User
}

// Table returns a named cached table.
func (m *Manager) Table(name string) (tabular.Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.app == nil || m.app.Data == nil {
		return tabular.Table{}, false
	}
	t, ok := m.app.Data[name]
	return t, ok
}

// IsAuthenticated reports whether a user is present with a live session.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.app != nil && m.app.IsAuthenticated
}

// SetOffline records transport reachability. Flipping the flag is the
// system's only fault-detection signal; it gates the reconciliation sweep.
func (m *Manager) SetOffline(offline bool) {
	m.mu.Lock()
	changed := m.offline != offline
	m.offline = offline
	m.mu.Unlock()

	if changed {
		if offline {
			slog.Warn("backend marked offline")
		} else {
			slog.Info("backend reachable again")
		}
	}
}

// Offline reports the last observed transport state.
func (m *Manager) Offline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.offline
}

// persistLocked writes the current cache to durable storage. Persistence
// failures are logged, not fatal: the in-memory cache stays authoritative
// for this process.
func (m *Manager) persistLocked() {
	raw, err := json.Marshal(m.app)
	if err != nil {
		slog.Error("failed to marshal app state", "error", err)
		return
	}
	if err := m.db.SaveSnapshot(string(raw)); err != nil {
		slog.Error("failed to persist app state", "error", err)
	}
}
