package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fieldline/paydesk/internal/config"
)

// APIError is a backend rejection mapped to a structured code. The backend
// reports failures as free-text error/details strings; matching happens
// here, once, so callers branch on codes instead of prose.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// substringCodes maps fragments of backend error text to structured codes.
// Order matters: first match wins.
var substringCodes = []struct {
	fragment string
	code     string
}{
	{"Insufficient balance", config.ErrorInsufficientBalance},
	{"insufficient balance", config.ErrorInsufficientBalance},
	{"Authentication required", config.ErrorUnauthenticated},
	{"Invalid token", config.ErrorUnauthenticated},
	{"token expired", config.ErrorUnauthenticated},
	{"needs verification", config.ErrorNeedsVerification},
}

// Classify converts the backend's free-text error and details into an
// APIError with a structured code. Unrecognized text becomes
// ERROR_BACKEND_REJECTED with the original message preserved.
func Classify(message, details string) *APIError {
	text := message
	if details != "" {
		text = message + ": " + details
	}
	if text == "" {
		text = "request failed"
	}

	for _, m := range substringCodes {
		if strings.Contains(text, m.fragment) {
			return &APIError{Code: m.code, Message: text}
		}
	}
	return &APIError{Code: config.ErrorBackendRejected, Message: text}
}

// IsCode reports whether err is (or wraps) an APIError carrying the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
