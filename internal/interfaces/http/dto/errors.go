package dto

import "net/http"

// Error code constants grouped by category

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Business rule error codes
const (
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInvalidReading      = "ERR_INVALID_READING"
	ErrCodeMissingReading      = "ERR_MISSING_READING"
	ErrCodeInvoiceImmutable    = "ERR_INVOICE_IMMUTABLE"
	ErrCodeInvalidAmount       = "ERR_INVALID_AMOUNT"
	ErrCodeIdempotencyConflict = "ERR_IDEMPOTENCY_CONFLICT"
	ErrCodeReconcileRunning    = "ERR_RECONCILE_RUNNING"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInvalidReading:      http.StatusUnprocessableEntity,
	ErrCodeMissingReading:      http.StatusUnprocessableEntity,
	ErrCodeInvoiceImmutable:    http.StatusUnprocessableEntity,
	ErrCodeInvalidAmount:       http.StatusBadRequest,
	ErrCodeIdempotencyConflict: http.StatusConflict,
	ErrCodeReconcileRunning:    http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code. Unknown
// codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INVALID_READING":      ErrCodeInvalidReading,
	"MISSING_READING":      ErrCodeMissingReading,
	"INVOICE_IMMUTABLE":    ErrCodeInvoiceImmutable,
	"INVALID_AMOUNT":       ErrCodeInvalidAmount,
	"IDEMPOTENCY_CONFLICT": ErrCodeIdempotencyConflict,
	"RECONCILE_RUNNING":    ErrCodeReconcileRunning,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unmapped codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
