package domain

import "errors"

// Common errors used throughout the application.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
)

// User input errors reported by a requirement session before any inventory call is made.
var (
	ErrNoScenarioSelected  = &UserInputError{Message: "Choose a scenario!!"}
	ErrUnknownScenario     = &UserInputError{Message: "Unknown scenario"}
	ErrOperationInProgress = &UserInputError{Message: "Another operation is still in progress"}
	ErrAlreadyInitialized  = &UserInputError{Message: "Session already initialized"}
	ErrUnknownList         = &UserInputError{Message: "Unknown requirement list"}
)

// Messages shown to the operator when an inventory call fails.
const (
	MsgScenariosFailed = "Error getting scenarios"
	MsgFetchFailed     = "Error getting requirements"
	MsgApplyFailed     = "Error applying requirements"
	MsgRemoveFailed    = "Error removing requirements"
)

// Error codes for standardized API error responses.
const (
	ErrCodeResourceNotFound = "RESOURCE_NOT_FOUND"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// UserInputError is an operator mistake, such as acting without a selected scenario.
type UserInputError struct {
	Message string
}

// Error implements the error interface.
func (e *UserInputError) Error() string {
	return e.Message
}

// TransportError is a failed call to the inventory service: network failure,
// non-2xx status or a malformed body. Message is what the operator sees.
type TransportError struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUserInput reports whether err is (or wraps) a UserInputError.
func IsUserInput(err error) bool {
	var uie *UserInputError
	return errors.As(err, &uie)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StandardError represents a standardized error response from the API.
type StandardError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// StandardErrorResponse wraps a StandardError for JSON responses.
type StandardErrorResponse struct {
	Error StandardError `json:"error"`
}
