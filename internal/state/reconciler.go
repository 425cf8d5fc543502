package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/tabular"
)

// Refresher fetches a fresh state snapshot. *backend.Client satisfies it.
type Refresher interface {
	UpdateAppData(ctx context.Context) (*backend.AppDataPayload, error)
}

// Reconciler is the coarse eventual-consistency sweep: while a user is
// present and the backend reachable, it checks the cached transactions
// table once per interval and pulls a full refresh whenever any row is
// still pending. Settlement truth lives server-side; the client only
// mirrors it.
type Reconciler struct {
	mgr       *Manager
	refresher Refresher
	interval  time.Duration
}

// NewReconciler creates a reconciler with the standard interval.
func NewReconciler(mgr *Manager, refresher Refresher) *Reconciler {
	return &Reconciler{
		mgr:       mgr,
		refresher: refresher,
		interval:  config.ReconcileInterval,
	}
}

// Run loops until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	slog.Info("reconciler started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// sweep performs one pending-transaction check.
func (r *Reconciler) sweep(ctx context.Context) {
	if r.mgr.User() == nil || r.mgr.Offline() {
		return
	}

	table, ok := r.mgr.Table("transactions")
	if !ok {
		return
	}

	pending, err := tabular.HasPending(table)
	if err != nil {
		slog.Warn("cached transactions table failed validation, skipping sweep", "error", err)
		return
	}
	if !pending {
		return
	}

	slog.Info("pending transactions detected, refreshing state")

	payload, err := r.refresher.UpdateAppData(ctx)
	if err != nil {
		slog.Warn("reconcile refresh failed", "error", err)
		return
	}
	r.mgr.Apply(payload)
}
