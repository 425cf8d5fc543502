package handlers

import (
	"net/http"
	"time"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/state"
	"github.com/fieldline/paydesk/internal/tabular"
)

// GetStateHandler returns the cached state snapshot.
func GetStateHandler(mgr *state.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := mgr.Snapshot()
		if snapshot == nil {
			writeError(w, http.StatusUnauthorized, config.ErrorUnauthenticated, "not logged in")
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: snapshot,
		})
	}
}

// RefreshStateHandler forces a full state pull from the backend and
// returns the merged snapshot.
func RefreshStateHandler(client *backend.Client, mgr *state.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		payload, err := client.UpdateAppData(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		mgr.Apply(payload)

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: mgr.Snapshot(),
			Meta: &models.APIMeta{
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}

// TransactionsHandler decodes the cached transactions table into typed
// rows. A malformed cached table is a hard error, not an empty list.
func TransactionsHandler(mgr *state.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !mgr.IsAuthenticated() {
			writeError(w, http.StatusUnauthorized, config.ErrorUnauthenticated, "not logged in")
			return
		}

		table, ok := mgr.Table("transactions")
		if !ok {
			writeJSON(w, http.StatusOK, models.APIResponse{
				Data: map[string]interface{}{
					"transactions": []models.WalletTransaction{},
					"count":        0,
				},
			})
			return
		}

		transactions, err := tabular.DecodeTransactions(table)
		if err != nil {
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{
				"transactions": transactions,
				"count":        len(transactions),
			},
			Meta: &models.APIMeta{
				Total: int64(len(transactions)),
			},
		})
	}
}
