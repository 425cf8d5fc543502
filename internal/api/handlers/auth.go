package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/funding"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/state"
	"github.com/fieldline/paydesk/internal/store"
)

// LoginHandler authenticates against the backend, persists the session,
// and seeds the state cache from the login snapshot.
func LoginHandler(client *backend.Client, db *store.DB, mgr *state.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, config.ErrorBadRequest, "email and password are required")
			return
		}

		result, err := client.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respondError(w, err)
			return
		}

		// The session row must exist before Apply: authentication state
		// is derived from the stored token.
		if err := db.SaveSession(result.Token, result.User.VerifyStatus); err != nil {
			slog.Error("failed to persist session", "error", err)
			respondError(w, err)
			return
		}

		payload := result.AppData
		payload.User = &result.User
		mgr.Apply(&payload)

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{
				"user":          result.User,
				"authenticated": true,
			},
			Meta: &models.APIMeta{
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}

// LogoutHandler invalidates the backend session and wipes all local state.
// Local cleanup always runs; a backend failure only gets logged. The
// operator asked to log out, so they log out.
func LogoutHandler(client *backend.Client, mgr *state.Manager, flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := client.Logout(r.Context()); err != nil {
			slog.Warn("backend logout failed, clearing local session anyway", "error", err)
		}

		flows.CloseAll()
		mgr.Clear()

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{
				"authenticated": false,
			},
		})
	}
}
