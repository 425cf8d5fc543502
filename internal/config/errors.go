package config

import "errors"

// Sentinel errors for internal use.
var (
	ErrInvalidConfig = errors.New("invalid configuration")

	// Backend client
	ErrOffline          = errors.New("backend unreachable")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrBackendRejected  = errors.New("backend rejected request")
	ErrMalformedPayload = errors.New("malformed backend payload")

	// Tabular decoding
	ErrTableShape    = errors.New("table shape mismatch")
	ErrMissingColumn = errors.New("required column missing")

	// Funding flow
	ErrAmountBelowMinimum = errors.New("amount below minimum")
	ErrAgreementRequired  = errors.New("acknowledgement required")
	ErrWrongStep          = errors.New("operation not valid for current step")
	ErrQuoteMissing       = errors.New("no quote for selected currency")
	ErrFlowFinished       = errors.New("funding flow already finished")

	// Validation
	ErrInvalidAddress = errors.New("invalid receiving address")
)

// Error codes shared with the console API and mapped from backend messages.
const (
	ErrorInvalidConfig       = "ERROR_INVALID_CONFIG"
	ErrorOffline             = "ERROR_OFFLINE"
	ErrorUnauthenticated     = "ERROR_UNAUTHENTICATED"
	ErrorInsufficientBalance = "ERROR_INSUFFICIENT_BALANCE"
	ErrorBackendRejected     = "ERROR_BACKEND_REJECTED"
	ErrorMalformedPayload    = "ERROR_MALFORMED_PAYLOAD"
	ErrorTableShape          = "ERROR_TABLE_SHAPE"
	ErrorMissingColumn       = "ERROR_MISSING_COLUMN"
	ErrorAmountBelowMinimum  = "ERROR_AMOUNT_BELOW_MINIMUM"
	ErrorAgreementRequired   = "ERROR_AGREEMENT_REQUIRED"
	ErrorWrongStep           = "ERROR_WRONG_STEP"
	ErrorQuoteMissing        = "ERROR_QUOTE_MISSING"
	ErrorFlowFinished        = "ERROR_FLOW_FINISHED"
	ErrorInvalidAddress      = "ERROR_INVALID_ADDRESS"
	ErrorNotFound            = "ERROR_NOT_FOUND"
	ErrorBadRequest          = "ERROR_BAD_REQUEST"
	ErrorInternal            = "ERROR_INTERNAL"
	ErrorNeedsVerification   = "ERROR_NEEDS_VERIFICATION"
)
