package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/funding"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/state"
)

// RegisterHandler creates a new backend account.
func RegisterHandler(client *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username     string `json:"username"`
			Email        string `json:"email"`
			Password     string `json:"password"`
			ReferralCode string `json:"referralCode"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, config.ErrorBadRequest, "username, email and password are required")
			return
		}

		if err := client.Register(r.Context(), req.Username, req.Email, req.Password, req.ReferralCode); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.APIResponse{
			Data: map[string]interface{}{"registered": true},
		})
	}
}

// ResetPasswordHandler starts the email reset-code dance.
func ResetPasswordHandler(client *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := client.ResetPassword(r.Context(), req.Email); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"sent": true},
		})
	}
}

// VerifyResetCodeHandler exchanges the emailed code for a reset token.
func VerifyResetCodeHandler(client *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		token, err := client.VerifyResetCode(r.Context(), req.Email, req.Code)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"resetToken": token},
		})
	}
}

// UpdatePasswordHandler completes a reset using the token from
// VerifyResetCode.
func UpdatePasswordHandler(client *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ResetToken string `json:"resetToken"`
			Password   string `json:"password"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := client.UpdatePassword(r.Context(), req.ResetToken, req.Password); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"updated": true},
		})
	}
}

// ChangePasswordHandler changes the password of the live session.
func ChangePasswordHandler(client *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := client.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"changed": true},
		})
	}
}

// GenerateAPIKeyHandler rotates and returns the account API key.
func GenerateAPIKeyHandler(client *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := client.GenerateAPIKey(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"apiKey": key},
		})
	}
}

// ToggleTwoFactorHandler flips 2FA and merges the refreshed snapshot.
func ToggleTwoFactorHandler(client *backend.Client, mgr *state.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		payload, err := client.ToggleTwoFactorAuth(r.Context(), req.Enabled)
		if err != nil {
			respondError(w, err)
			return
		}
		mgr.Apply(payload)
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: mgr.Snapshot(),
		})
	}
}

// ChangePlanHandler switches the subscription plan and merges the
// refreshed snapshot.
func ChangePlanHandler(client *backend.Client, mgr *state.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Plan string `json:"plan"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		payload, err := client.ChangePlan(r.Context(), req.Plan)
		if err != nil {
			respondError(w, err)
			return
		}
		mgr.Apply(payload)
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: mgr.Snapshot(),
		})
	}
}

// DestroyAccountHandler permanently deletes the account and wipes local
// state.
func DestroyAccountHandler(client *backend.Client, mgr *state.Manager, flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := client.DestroyAccount(r.Context()); err != nil {
			respondError(w, err)
			return
		}

		flows.CloseAll()
		mgr.Clear()
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"destroyed": true},
		})
	}
}

// FeatureCallHandler proxies an allowlisted feature function and merges
// any refreshed snapshot it returns. The request body is forwarded as
// string parameters; the backend owns the schema.
func FeatureCallHandler(client *backend.Client, mgr *state.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		functionName := chi.URLParam(r, "functionName")

		var params map[string]string
		if r.ContentLength > 0 && !decodeBody(w, r, &params) {
			return
		}

		payload, err := client.FeatureCall(r.Context(), functionName, params)
		if err != nil {
			respondError(w, err)
			return
		}
		mgr.Apply(payload)
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: mgr.Snapshot(),
		})
	}
}
