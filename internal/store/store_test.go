package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "paydesk-test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := testDB(t)

	_, ok, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot in a fresh database")
	}

	if err := db.SaveSnapshot(`{"user":null}`); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := db.SaveSnapshot(`{"user":{"id":"u1"}}`); err != nil {
		t.Fatalf("SaveSnapshot overwrite: %v", err)
	}

	got, ok, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if got != `{"user":{"id":"u1"}}` {
		t.Errorf("snapshot was not overwritten, got %q", got)
	}

	if err := db.DeleteSnapshot(); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	_, ok, err = db.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot after delete: %v", err)
	}
	if ok {
		t.Error("expected snapshot gone after delete")
	}
}

func TestTimerRoundTrip(t *testing.T) {
	db := testDB(t)

	_, ok, err := db.GetTimer("ord-1")
	if err != nil {
		t.Fatalf("GetTimer: %v", err)
	}
	if ok {
		t.Fatal("expected no timer in a fresh database")
	}

	if err := db.UpsertTimer("ord-1", 1000); err != nil {
		t.Fatalf("UpsertTimer: %v", err)
	}
	if err := db.UpsertTimer("ord-1", 2000); err != nil {
		t.Fatalf("UpsertTimer overwrite: %v", err)
	}

	end, ok, err := db.GetTimer("ord-1")
	if err != nil {
		t.Fatalf("GetTimer: %v", err)
	}
	if !ok {
		t.Fatal("expected a timer")
	}
	if end != 2000 {
		t.Errorf("expected overwritten end time 2000, got %d", end)
	}

	// Timers are per order.
	if err := db.UpsertTimer("ord-2", 3000); err != nil {
		t.Fatalf("UpsertTimer second order: %v", err)
	}
	if err := db.DeleteTimer("ord-1"); err != nil {
		t.Fatalf("DeleteTimer: %v", err)
	}
	_, ok, err = db.GetTimer("ord-1")
	if err != nil {
		t.Fatalf("GetTimer after delete: %v", err)
	}
	if ok {
		t.Error("expected ord-1 timer gone")
	}
	_, ok, err = db.GetTimer("ord-2")
	if err != nil {
		t.Fatalf("GetTimer ord-2: %v", err)
	}
	if !ok {
		t.Error("expected ord-2 timer untouched")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := testDB(t)

	if got := db.Token(); got != "" {
		t.Fatalf("expected empty token in a fresh database, got %q", got)
	}

	if err := db.SaveSession("tok-abc", "verified"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	token, verifyStatus, ok, err := db.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if !ok {
		t.Fatal("expected a session")
	}
	if token != "tok-abc" || verifyStatus != "verified" {
		t.Errorf("unexpected session: token=%q verifyStatus=%q", token, verifyStatus)
	}
	if got := db.Token(); got != "tok-abc" {
		t.Errorf("Token() = %q, want tok-abc", got)
	}

	if err := db.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if got := db.Token(); got != "" {
		t.Errorf("expected empty token after clear, got %q", got)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
}
