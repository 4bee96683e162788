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
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeForbidden is used when the client may not read a resource
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when a layer commit keeps losing to concurrent consumers
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Costing rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the line's state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeAlreadyDone is used when a movement line is confirmed twice
	ErrCodeAlreadyDone = "ERR_ALREADY_DONE"
	// ErrCodeBusinessRule is used for generic costing rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInsufficientStock is used when open layers cannot cover a request
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeLotRequired is used when lot-tracked goods are requested without a lot
	ErrCodeLotRequired = "ERR_LOT_REQUIRED"
	// ErrCodeLotNotReady is used when a lot's inbound line is still a draft
	ErrCodeLotNotReady = "ERR_LOT_NOT_READY"
	// ErrCodeReleaseExceedsQuantity is used when a release would overfill a layer
	ErrCodeReleaseExceedsQuantity = "ERR_RELEASE_EXCEEDS_QUANTITY"
	// ErrCodeEmptyApportionment is used when a pool has no members
	ErrCodeEmptyApportionment = "ERR_EMPTY_APPORTIONMENT"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidQuantity is used for non-positive or disallowed quantities
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Costing rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:           http.StatusUnprocessableEntity,
	ErrCodeAlreadyDone:            http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:           http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:      http.StatusUnprocessableEntity,
	ErrCodeLotRequired:            http.StatusUnprocessableEntity,
	ErrCodeLotNotReady:            http.StatusUnprocessableEntity,
	ErrCodeReleaseExceedsQuantity: http.StatusUnprocessableEntity,
	ErrCodeEmptyApportionment:     http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidQuantity: http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_STATE":            ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":       ErrCodeInsufficientStock,
	"LOT_REQUIRED":             ErrCodeLotRequired,
	"LOT_NOT_READY":            ErrCodeLotNotReady,
	"INVALID_QUANTITY":         ErrCodeInvalidQuantity,
	"ALREADY_DONE":             ErrCodeAlreadyDone,
	"RELEASE_EXCEEDS_QUANTITY": ErrCodeReleaseExceedsQuantity,
	"EMPTY_APPORTIONMENT":      ErrCodeEmptyApportionment,
	"INVALID_DIRECTION":        ErrCodeInvalidInput,
	"INVALID_GOODS":            ErrCodeInvalidInput,
	"INVALID_SCOPE":            ErrCodeInvalidInput,
	"INVALID_JOINT_KIND":       ErrCodeInvalidInput,
	"INVALID_TAX":              ErrCodeBusinessRule,
	"INVALID_WAREHOUSE":        ErrCodeBusinessRule,
	"COST_NOT_ALLOWED":         ErrCodeBusinessRule,
	"COST_IMMUTABLE":           ErrCodeBusinessRule,
	"LOT_IMMUTABLE":            ErrCodeBusinessRule,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
