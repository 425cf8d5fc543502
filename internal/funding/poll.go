package funding

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/tabular"
)

// watchPayment runs for the lifetime of one payment window. It ticks the
// countdown every second, polls settlement every two minutes (plus one
// immediate check), and raises the payment prompt after five minutes of
// silence. The watcher never writes the terminal state directly; it calls
// back into the flow, which re-checks the step under the lock.
func (f *Flow) watchPayment(ctx context.Context, orderID string) {
	countdown := time.NewTicker(config.CountdownTick)
	defer countdown.Stop()
	settle := time.NewTicker(config.SettlementPollInterval)
	defer settle.Stop()
	nudge := time.NewTimer(config.NudgeDelay)
	defer nudge.Stop()

	slog.Debug("payment watcher started", "flowId", f.ID, "orderId", orderID)

	// Settlement may already have landed before the window opened.
	if f.checkSettlement(ctx, orderID) {
		f.markCompleted(orderID)
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Debug("payment watcher stopped", "flowId", f.ID, "orderId", orderID)
			return
		case <-countdown.C:
			if f.tickCountdown(orderID) {
				f.markExpired(orderID)
				return
			}
		case <-settle.C:
			if f.checkSettlement(ctx, orderID) {
				f.markCompleted(orderID)
				return
			}
		case <-nudge.C:
			f.raiseNudge()
		}
	}
}

// tickCountdown refreshes the cached countdown from the durable timer and
// reports whether the window has run out. A missing timer counts as
// expired: the store self-clears at zero.
func (f *Flow) tickCountdown(orderID string) bool {
	remaining, err := f.timers.Remaining(orderID)
	if err != nil {
		slog.Error("failed to read payment timer", "orderId", orderID, "error", err)
		return false
	}
	if remaining == nil {
		return true
	}

	f.mu.Lock()
	f.countdown = *remaining
	if f.details != nil {
		f.details.TimeRemaining = remaining.Minutes*60 + remaining.Seconds
	}
	f.mu.Unlock()

	return remaining.Minutes == 0 && remaining.Seconds == 0
}

// checkSettlement pulls a fresh state snapshot and looks for the order's
// transaction flipping to completed. The snapshot is applied to the shared
// cache either way, so a poll here doubles as a state refresh.
func (f *Flow) checkSettlement(ctx context.Context, orderID string) bool {
	payload, err := f.client.UpdateAppData(ctx)
	if err != nil {
		slog.Warn("settlement poll failed", "orderId", orderID, "error", err)
		return false
	}
	f.mgr.Apply(payload)

	table, ok := f.mgr.Table("transactions")
	if !ok {
		return false
	}
	tx, err := tabular.FindByReference(table, orderID)
	if err != nil {
		slog.Warn("transactions table failed validation during settlement poll", "error", err)
		return false
	}
	return tx != nil && tx.Status == models.TxCompleted
}

// raiseNudge flags the payment prompt if the window is still open.
func (f *Flow) raiseNudge() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return
	}
	f.nudgeActive = true
	slog.Info("payment prompt raised", "flowId", f.ID)
}

// markCompleted settles the flow after the backend confirmed the credit.
func (f *Flow) markCompleted(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return
	}
	f.closeLocked(StepCompleted)
	slog.Info("funding settled", "flowId", f.ID, "orderId", orderID)
}

// markExpired ends the flow when the payment window runs out.
func (f *Flow) markExpired(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return
	}
	f.closeLocked(StepExpired)
	slog.Info("payment window expired", "flowId", f.ID, "orderId", orderID)
}
