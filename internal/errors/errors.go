// Package errors provides custom error types for the Rufous API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey  = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// Statement errors.
var (
	ErrStatementNotFound         = &AppError{Code: "STATEMENT_NOT_FOUND", Message: "Statement not found", StatusCode: http.StatusNotFound}
	ErrStatementAlreadyProcessed = &AppError{Code: "STATEMENT_ALREADY_PROCESSED", Message: "This statement has already been processed", StatusCode: http.StatusConflict}
	ErrNotExtractable            = &AppError{Code: "NOT_EXTRACTABLE", Message: "No text could be extracted from the document", StatusCode: http.StatusUnprocessableEntity}
	ErrEmptyStatement            = &AppError{Code: "EMPTY_STATEMENT", Message: "No transactions found in the statement", StatusCode: http.StatusUnprocessableEntity}
)

// Import errors.
var (
	ErrInvalidJSON    = &AppError{Code: "INVALID_JSON", Message: "Request body is not valid JSON", StatusCode: http.StatusBadRequest}
	ErrNoValidRecords = &AppError{Code: "NO_VALID_RECORDS", Message: "No importable records found in the payload", StatusCode: http.StatusUnprocessableEntity}
	ErrUnknownAccount = &AppError{Code: "UNKNOWN_ACCOUNT_TYPE", Message: "Account type must be debit or credit", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidDateRange    = &AppError{Code: "INVALID_DATE_RANGE", Message: "Invalid date range", StatusCode: http.StatusBadRequest}
)

// Rule errors.
var (
	ErrRuleNotFound = &AppError{Code: "RULE_NOT_FOUND", Message: "Categorization rule not found", StatusCode: http.StatusNotFound}
	ErrRuleInvalid  = &AppError{Code: "RULE_INVALID", Message: "Rule must define at least one pattern or keyword", StatusCode: http.StatusBadRequest}
)

// Insight errors.
var (
	ErrInsightUnavailable = &AppError{Code: "INSIGHT_UNAVAILABLE", Message: "The insight backend is not configured", StatusCode: http.StatusServiceUnavailable}
)
