package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrForbidden        = fmt.Errorf("insufficient permissions")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input errors
	ErrInputNotFound     = fmt.Errorf("input file not found")
	ErrUnsupportedFormat = fmt.Errorf("unsupported spreadsheet format")
	ErrMissingColumn     = fmt.Errorf("missing required column")
	ErrInvalidInput      = fmt.Errorf("invalid input")

	// History errors
	ErrHistoryDisabled = fmt.Errorf("run history is disabled")
	ErrRunNotFound     = fmt.Errorf("import run not found")
)
