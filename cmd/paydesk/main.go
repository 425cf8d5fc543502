package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldline/paydesk/internal/api"
	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/funding"
	"github.com/fieldline/paydesk/internal/logging"
	"github.com/fieldline/paydesk/internal/state"
	"github.com/fieldline/paydesk/internal/store"
	"github.com/fieldline/paydesk/internal/timer"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("paydesk %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: paydesk <command>

Commands:
  serve     Start the local console daemon
  version   Print version information
`)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("starting paydesk",
		"version", version,
		"network", cfg.Network,
		"port", cfg.Port,
		"backend", cfg.BackendURL,
		"dbPath", cfg.DBPath,
		"logLevel", cfg.LogLevel,
	)

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	slog.Info("database opened", "path", cfg.DBPath)

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database migrations applied")

	client := backend.New(cfg.BackendURL, db, cfg.BackendRPS)
	mgr := state.NewManager(db)
	client.SetOfflineSink(mgr)

	timers := timer.NewStore(db)
	flows := funding.NewRegistry(client, mgr, timers, cfg.Network)

	// Background reconciliation sweep for pending transactions.
	reconCtx, reconCancel := context.WithCancel(context.Background())
	defer reconCancel()
	go state.NewReconciler(mgr, client).Run(reconCtx)

	router := api.NewRouter(cfg, client, db, mgr, flows)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	srv := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    config.ServerReadTimeout,
		WriteTimeout:   config.ServerWriteTimeout,
		IdleTimeout:    config.ServerIdleTimeout,
		MaxHeaderBytes: config.ServerMaxHeaderBytes,
	}

	slog.Info("server configured",
		"readTimeout", config.ServerReadTimeout,
		"writeTimeout", config.ServerWriteTimeout,
		"idleTimeout", config.ServerIdleTimeout,
		"maxHeaderBytes", config.ServerMaxHeaderBytes,
	)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("initiating graceful shutdown",
		"timeout", config.ShutdownTimeout,
	)

	// 1. Stop the reconciler and every payment watcher.
	reconCancel()
	flows.CloseAll()
	slog.Info("background workers stopped")

	// 2. Shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
