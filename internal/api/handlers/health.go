package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/state"
)

// HealthHandler returns a handler for the GET /api/health endpoint.
func HealthHandler(cfg *config.Config, mgr *state.Manager, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("health check requested", "remoteAddr", r.RemoteAddr)

		backendStatus := "online"
		if mgr.Offline() {
			backendStatus = "offline"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "ok",
			"version":       version,
			"network":       cfg.Network,
			"backend":       backendStatus,
			"authenticated": mgr.IsAuthenticated(),
		})
	}
}
