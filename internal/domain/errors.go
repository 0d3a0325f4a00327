package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// ValidationError rejects a malformed alert payload. Maps to HTTP 400 and is
// never retried by the gateway.
type ValidationError struct {
	Field  string // "side", "qty", ...
	Reason string // human-readable, returned to the caller
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a validation error for a payload field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// BrokerError wraps a failure from the brokerage capability (rejected order,
// network fault, timeout). It is caller-visible but answered with HTTP 200 so
// the alerting platform does not retry an order that may have partially
// succeeded.
type BrokerError struct {
	Op  string // "submit_order", "close_position"
	Err error
}

func (e *BrokerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// NetworkError represents a network-related error that may be retriable.
// Used by the trade-updates stream worker to decide on reconnect.
type NetworkError struct {
	Op        string // Operation that failed (e.g., "connect", "read", "write")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable). Missing
// brokerage credentials are fatal at startup: the process refuses to serve.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrUnauthorized is returned when the webhook credential does not match
	// the configured secret. Maps to HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
