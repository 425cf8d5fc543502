package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldline/paydesk/internal/api/handlers"
	"github.com/fieldline/paydesk/internal/api/middleware"
	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/funding"
	"github.com/fieldline/paydesk/internal/state"
	"github.com/fieldline/paydesk/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(cfg *config.Config, client *backend.Client, db *store.DB, mgr *state.Manager, flows *funding.Registry) chi.Router {
	r := chi.NewRouter()

	// Middleware stack (order matters)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HostCheck)

	slog.Info("router initialized",
		"middleware", []string{"realIP", "requestLogging", "recoverer", "hostCheck"},
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthHandler(cfg, mgr, Version))

		r.Post("/login", handlers.LoginHandler(client, db, mgr))
		r.Post("/logout", handlers.LogoutHandler(client, mgr, flows))
		r.Post("/register", handlers.RegisterHandler(client))
		r.Post("/reset-password", handlers.ResetPasswordHandler(client))
		r.Post("/verify-reset-code", handlers.VerifyResetCodeHandler(client))
		r.Post("/update-password", handlers.UpdatePasswordHandler(client))

		r.Get("/state", handlers.GetStateHandler(mgr))
		r.Post("/state/refresh", handlers.RefreshStateHandler(client, mgr))
		r.Get("/transactions", handlers.TransactionsHandler(mgr))

		r.Route("/funding", func(r chi.Router) {
			r.Post("/", handlers.CreateFlowHandler(flows))
			r.Get("/", handlers.ListFlowsHandler(flows))
			r.Route("/{flowID}", func(r chi.Router) {
				r.Get("/", handlers.FlowStatusHandler(flows))
				r.Post("/amount", handlers.SubmitAmountHandler(flows))
				r.Post("/method", handlers.ChooseMethodHandler(flows))
				r.Post("/method/change", handlers.ChangeMethodHandler(flows))
				r.Post("/nudge", handlers.NudgeHandler(flows))
				r.Get("/qr", handlers.QRHandler(flows))
				r.Post("/close", handlers.CloseFlowHandler(flows))
			})
		})

		r.Route("/account", func(r chi.Router) {
			r.Post("/password", handlers.ChangePasswordHandler(client))
			r.Post("/api-key", handlers.GenerateAPIKeyHandler(client))
			r.Post("/two-factor", handlers.ToggleTwoFactorHandler(client, mgr))
			r.Post("/plan", handlers.ChangePlanHandler(client, mgr))
			r.Post("/destroy", handlers.DestroyAccountHandler(client, mgr, flows))
		})

		r.Post("/feature/{functionName}", handlers.FeatureCallHandler(client, mgr))
	})

	return r
}
