package state

import (
	"context"
	"testing"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/tabular"
)

type fakeRefresher struct {
	calls   int
	payload *backend.AppDataPayload
	err     error
}

func (f *fakeRefresher) UpdateAppData(ctx context.Context) (*backend.AppDataPayload, error) {
	f.calls++
	return f.payload, f.err
}

func pendingTable() tabular.Table {
	return testTable([][]string{{"1", "pending"}})
}

func settledTable() tabular.Table {
	return testTable([][]string{{"1", "completed"}})
}

func TestSweep_RefreshesOnPending(t *testing.T) {
	db := testDB(t)
	if err := db.SaveSession("tok-abc", "verified"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	mgr := NewManager(db)
	mgr.Apply(testPayload(map[string]tabular.Table{
		"transactions": pendingTable(),
	}))

	refresher := &fakeRefresher{
		payload: &backend.AppDataPayload{
			Tables: map[string]tabular.Table{
				"transactions": settledTable(),
			},
		},
	}
	r := NewReconciler(mgr, refresher)

	r.sweep(context.Background())

	if refresher.calls != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.calls)
	}
	snapshot := mgr.Snapshot()
	if snapshot.Data["transactions"].Data[0][1] != "completed" {
		t.Error("refreshed table was not applied")
	}

	// Nothing pending anymore: the next sweep stays quiet.
	r.sweep(context.Background())
	if refresher.calls != 1 {
		t.Errorf("expected no further refresh, got %d calls", refresher.calls)
	}
}

func TestSweep_SkipsWithoutUser(t *testing.T) {
	mgr := NewManager(testDB(t))
	refresher := &fakeRefresher{}
	r := NewReconciler(mgr, refresher)

	r.sweep(context.Background())

	if refresher.calls != 0 {
		t.Errorf("expected no refresh while logged out, got %d", refresher.calls)
	}
}

func TestSweep_SkipsWhileOffline(t *testing.T) {
	db := testDB(t)
	if err := db.SaveSession("tok-abc", "verified"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	mgr := NewManager(db)
	mgr.Apply(testPayload(map[string]tabular.Table{
		"transactions": pendingTable(),
	}))
	mgr.SetOffline(true)

	refresher := &fakeRefresher{}
	r := NewReconciler(mgr, refresher)

	r.sweep(context.Background())

	if refresher.calls != 0 {
		t.Errorf("expected no refresh while offline, got %d", refresher.calls)
	}
}

func TestSweep_SkipsMalformedCachedTable(t *testing.T) {
	db := testDB(t)
	if err := db.SaveSession("tok-abc", "verified"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	mgr := NewManager(db)

	broken := pendingTable()
	broken.Count = 99
	mgr.Apply(testPayload(map[string]tabular.Table{
		"transactions": broken,
	}))

	refresher := &fakeRefresher{}
	r := NewReconciler(mgr, refresher)

	r.sweep(context.Background())

	if refresher.calls != 0 {
		t.Errorf("malformed table must not trigger a refresh, got %d calls", refresher.calls)
	}
}
