package dto

import "net/http"

// Error codes returned by the API
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeKeyFetch      = "KEY_FETCH_FAILED"
	ErrCodeAuth          = "VENDOR_AUTH_FAILED"
	ErrCodeTransport     = "VENDOR_UNREACHABLE"
	ErrCodeVendorAPI     = "VENDOR_REQUEST_FAILED"
	ErrCodeEmptyResult   = "EMPTY_RESULT"
	ErrCodeValidation    = "MISSING_CONFIGURATION"
	ErrCodeNoSession     = "SESSION_NOT_CONFIGURED"
	ErrCodeSessionExists = "SESSION_ALREADY_EXISTS"
)

var statusByCode = map[string]int{
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeKeyFetch:      http.StatusBadGateway,
	ErrCodeAuth:          http.StatusBadGateway,
	ErrCodeTransport:     http.StatusBadGateway,
	ErrCodeVendorAPI:     http.StatusBadGateway,
	ErrCodeEmptyResult:   http.StatusNotFound,
	ErrCodeValidation:    http.StatusUnprocessableEntity,
	ErrCodeNoSession:     http.StatusNotFound,
	ErrCodeSessionExists: http.StatusConflict,
}

// GetHTTPStatus maps an error code to an HTTP status, defaulting to 500
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
