package config

import "time"

// Funding flow
const (
	// MinFundAmountUSD is the smallest accepted top-up, enforced before any
	// network call.
	MinFundAmountUSD = 20

	// PaymentWindow is how long a receiving address stays valid once a
	// payment is initialized.
	PaymentWindow = 30 * time.Minute

	// CountdownTick drives the per-second countdown readout.
	CountdownTick = 1 * time.Second

	// SettlementPollInterval is how often an open payment re-fetches global
	// state looking for its settled transaction. The first poll fires
	// immediately on entering the payment stage.
	SettlementPollInterval = 2 * time.Minute

	// NudgeDelay is the inactivity window before the "have you paid?" prompt.
	NudgeDelay = 5 * time.Minute
)

// Reconciliation
const (
	// ReconcileInterval is the cadence of the pending-transaction sweep.
	ReconcileInterval = 60 * time.Second
)

// Backend client
const (
	APITimeout = 30 * time.Second

	// Legacy ticket-demo fetch path only; the payment core never retries.
	RetryAttempts = 3
	RetryDelay    = 60 * time.Second
)

// Server
const (
	ServerReadTimeout    = 30 * time.Second
	ServerWriteTimeout   = 60 * time.Second
	ServerIdleTimeout    = 120 * time.Second
	ServerMaxHeaderBytes = 1 << 20
	ShutdownTimeout      = 10 * time.Second
)

// Logging
const (
	LogFilePattern = "paydesk-%s.log" // %s = YYYY-MM-DD
	LogFilePrefix  = "paydesk-"
	LogMaxAgeDays  = 30
)

// Database
const (
	DBBusyTimeout = 5000 // milliseconds
)

// QR
const (
	QRImageSize = 256 // pixels, square
)
