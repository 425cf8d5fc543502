package state

import (
	"path/filepath"
	"testing"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/store"
	"github.com/fieldline/paydesk/internal/tabular"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.New(filepath.Join(t.TempDir(), "state-test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func testPayload(tables map[string]tabular.Table) *backend.AppDataPayload {
	return &backend.AppDataPayload{
		User:   &models.User{ID: "u1", Username: "ops", Balance: "100"},
		Tables: tables,
	}
}

func testTable(rows [][]string) tabular.Table {
	return tabular.Table{
		Success: true,
		Headers: []string{"id", "status"},
		Data:    rows,
		Count:   len(rows),
	}
}

func TestNewManager_EmptyDatabase(t *testing.T) {
	m := NewManager(testDB(t))

	if m.Snapshot() != nil {
		t.Error("expected nil snapshot from a fresh database")
	}
	if m.IsAuthenticated() {
		t.Error("expected unauthenticated")
	}
	if m.User() != nil {
		t.Error("expected no user")
	}
}

func TestApply_PersistsAndRehydrates(t *testing.T) {
	db := testDB(t)
	if err := db.SaveSession("tok-abc", "verified"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	m := NewManager(db)
	m.Apply(testPayload(map[string]tabular.Table{
		"transactions": testTable([][]string{{"1", "pending"}}),
	}))

	if !m.IsAuthenticated() {
		t.Fatal("expected authenticated after apply with stored token")
	}

	// A second manager over the same database sees the persisted state.
	m2 := NewManager(db)
	snapshot := m2.Snapshot()
	if snapshot == nil {
		t.Fatal("expected rehydrated snapshot")
	}
	if snapshot.User == nil || snapshot.User.Username != "ops" {
		t.Errorf("rehydrated user = %+v", snapshot.User)
	}
	if _, ok := snapshot.Data["transactions"]; !ok {
		t.Error("rehydrated snapshot lost the transactions table")
	}
}

func TestNewManager_CorruptedSnapshotDiscarded(t *testing.T) {
	db := testDB(t)
	if err := db.SaveSnapshot("{not valid json"); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	m := NewManager(db)
	if m.Snapshot() != nil {
		t.Error("expected empty state after corrupted snapshot")
	}

	// The corrupted row must be gone so the next startup is clean too.
	_, ok, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if ok {
		t.Error("expected corrupted snapshot deleted")
	}
}

func TestApply_LastWriteWinsMerge(t *testing.T) {
	db := testDB(t)
	if err := db.SaveSession("tok-abc", "verified"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	m := NewManager(db)

	m.Apply(testPayload(map[string]tabular.Table{
		"transactions": testTable([][]string{{"1", "pending"}}),
		"projects":     testTable([][]string{{"p1", "active"}}),
	}))

	// Second snapshot carries only transactions; projects must survive.
	m.Apply(&backend.AppDataPayload{
		Tables: map[string]tabular.Table{
			"transactions": testTable([][]string{{"1", "completed"}}),
		},
	})

	snapshot := m.Snapshot()
	if snapshot == nil {
		t.Fatal("expected snapshot")
	}
	tx := snapshot.Data["transactions"]
	if tx.Data[0][1] != "completed" {
		t.Errorf("transactions table not replaced: %v", tx.Data)
	}
	if _, ok := snapshot.Data["projects"]; !ok {
		t.Error("omitted projects table should keep its previous value")
	}
	if snapshot.User == nil || snapshot.User.Username != "ops" {
		t.Error("user should survive a payload without one")
	}
}

func TestApply_NilPayloadIsNoOp(t *testing.T) {
	m := NewManager(testDB(t))
	m.Apply(nil)
	if m.Snapshot() != nil {
		t.Error("nil payload must not create state")
	}
}

func TestClear(t *testing.T) {
	db := testDB(t)
	if err := db.SaveSession("tok-abc", "verified"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	m := NewManager(db)
	m.Apply(testPayload(nil))
	m.SetOffline(true)

	m.Clear()

	if m.Snapshot() != nil {
		t.Error("expected nil snapshot after clear")
	}
	if m.IsAuthenticated() {
		t.Error("expected unauthenticated after clear")
	}
	if m.Offline() {
		t.Error("offline flag should reset on clear")
	}
	if db.Token() != "" {
		t.Error("expected session cleared")
	}
	_, ok, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if ok {
		t.Error("expected persisted snapshot deleted")
	}
}

func TestIsAuthenticated_RequiresStoredToken(t *testing.T) {
	db := testDB(t)
	m := NewManager(db)

	// User present but no session token: not authenticated.
	m.Apply(testPayload(nil))
	if m.IsAuthenticated() {
		t.Error("a user without a token must not count as authenticated")
	}
}

func TestSetOffline(t *testing.T) {
	m := NewManager(testDB(t))

	if m.Offline() {
		t.Fatal("expected online initially")
	}
	m.SetOffline(true)
	if !m.Offline() {
		t.Error("expected offline")
	}
	m.SetOffline(false)
	if m.Offline() {
		t.Error("expected online again")
	}
}
