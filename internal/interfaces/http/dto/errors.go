package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Domain codes (no ERR_ prefix) are part of the API contract: clients branch
// on them, so they pass through normalization unchanged and are mapped here
// directly instead of being collapsed into generic codes.
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,

	// Lookups -> 404 Not Found
	"MOVE_NOT_FOUND":    http.StatusNotFound,
	"PARTNER_NOT_FOUND": http.StatusNotFound,
	"RECEIPT_NOT_FOUND": http.StatusNotFound,
	"UPLOAD_NOT_FOUND":  http.StatusNotFound,

	// Ledger rules -> 422 Unprocessable Entity. The request parsed fine,
	// the move book refuses it.
	"OVER_RECEIPT":     http.StatusUnprocessableEntity,
	"QC_REQUIRED":      http.StatusUnprocessableEntity,
	"PARTNER_INACTIVE": http.StatusUnprocessableEntity,
	"MOVE_VOIDED":      http.StatusUnprocessableEntity,
	"MOVE_COMPLETED":   http.StatusUnprocessableEntity,
	"ALREADY_ACTIVE":   http.StatusUnprocessableEntity,
	"ALREADY_INACTIVE": http.StatusUnprocessableEntity,

	// State conflicts -> 409 Conflict
	"MOVE_HAS_RECEIPTS": http.StatusConflict,
	"CANNOT_DELETE":     http.StatusConflict,

	// Corrupted ledger state -> 500. Surfaced, never repaired in a handler.
	"INVARIANT_VIOLATION": http.StatusInternalServerError,

	// Document rules
	"DOCUMENT_NOT_ACTIVE":     http.StatusUnprocessableEntity,
	"DOCUMENT_LIMIT_EXCEEDED": http.StatusUnprocessableEntity,
	"FILE_TOO_LARGE":          http.StatusUnprocessableEntity,
	"DISALLOWED_CONTENT_TYPE": http.StatusUnprocessableEntity,

	// Domain field validation -> 400 Bad Request
	"INVALID_QUANTITY":             http.StatusBadRequest,
	"INVALID_PROCESS_TYPE":         http.StatusBadRequest,
	"INVALID_WORK_ORDER":           http.StatusBadRequest,
	"INVALID_PARTNER":              http.StatusBadRequest,
	"INVALID_MOVE":                 http.StatusBadRequest,
	"INVALID_RECEIPT":              http.StatusBadRequest,
	"INVALID_DISPATCH_DATE":        http.StatusBadRequest,
	"INVALID_EXPECTED_RETURN_DATE": http.StatusBadRequest,
	"INVALID_RECEIVED_DATE":        http.StatusBadRequest,
	"INVALID_QC_OUTCOME":           http.StatusBadRequest,
	"INVALID_VOID_REASON":          http.StatusBadRequest,
	"INVALID_DATE_RANGE":           http.StatusBadRequest,
	"INVALID_CODE":                 http.StatusBadRequest,
	"INVALID_NAME":                 http.StatusBadRequest,
	"INVALID_LEAD_TIME":            http.StatusBadRequest,
	"INVALID_CONTACT_NAME":         http.StatusBadRequest,
	"INVALID_PHONE":                http.StatusBadRequest,
	"INVALID_EMAIL":                http.StatusBadRequest,
	"INVALID_ADDRESS":              http.StatusBadRequest,
	"INVALID_DOCUMENT_KIND":        http.StatusBadRequest,
	"INVALID_FILE_NAME":            http.StatusBadRequest,
	"INVALID_FILE_SIZE":            http.StatusBadRequest,
	"INVALID_CONTENT_TYPE":         http.StatusBadRequest,
	"INVALID_STORAGE_KEY":          http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps generic domain error codes to standardized codes.
// Specific domain codes (MOVE_NOT_FOUND, OVER_RECEIPT, ...) are deliberately
// absent: they carry meaning and are passed through unchanged.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
