package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeValidation   = "ERR_VALIDATION"
)

// Access error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Billing error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the
	// bill's current status.
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeUnresolvedUnit is used when no unit matches the supplied
	// identifier.
	ErrCodeUnresolvedUnit = "ERR_UNRESOLVED_UNIT"
	// ErrCodeDuplicatePeriod is used when a bill already exists for the
	// unit and billing period.
	ErrCodeDuplicatePeriod = "ERR_DUPLICATE_PERIOD"
	// ErrCodeLockedPeriod is used when the billing period falls in the
	// frozen month.
	ErrCodeLockedPeriod = "ERR_LOCKED_PERIOD"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeUnresolvedUnit:  http.StatusBadRequest,
	ErrCodeDuplicatePeriod: http.StatusConflict,
	ErrCodeLockedPeriod:    http.StatusLocked,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes fall back to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping maps domain error codes to API error codes
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"INVALID_STATE":    ErrCodeInvalidState,
	"UNRESOLVED_UNIT":  ErrCodeUnresolvedUnit,
	"DUPLICATE_PERIOD": ErrCodeDuplicatePeriod,
	"LOCKED_PERIOD":    ErrCodeLockedPeriod,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
