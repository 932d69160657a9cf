package dto

import "net/http"

// Error codes exposed by the API. Domain error codes map onto these
// one-to-one where a domain counterpart exists.
const (
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidCursor = "INVALID_CURSOR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeStaleSnapshot = "STALE_SNAPSHOT"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidCursor: http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeStaleSnapshot: http.StatusConflict,
	ErrCodeUpstream:      http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes default to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
