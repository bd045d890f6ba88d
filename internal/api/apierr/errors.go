package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/transport"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidRoomID    = "INVALID_ROOM_ID"
	CodeInvalidMove      = "INVALID_MOVE"
	CodeRoomActive       = "ROOM_ACTIVE"
	CodeNoActiveRoom     = "NO_ACTIVE_ROOM"
	CodeNotStarted       = "NOT_STARTED"
	CodeTransportError   = "TRANSPORT_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidRoomID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRoomID, "Room ID must be non-empty and not the lobby channel"}}
	case errors.Is(err, model.ErrInvalidMove):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMove, "Move must be rock, paper or scissors"}}
	case errors.Is(err, model.ErrRoomActive):
		return &httpError{http.StatusConflict, APIError{CodeRoomActive, "A room is already active; reset first"}}
	case errors.Is(err, model.ErrNoActiveRoom):
		return &httpError{http.StatusConflict, APIError{CodeNoActiveRoom, "No active room"}}
	case errors.Is(err, model.ErrNotStarted):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeNotStarted, "Session is not connected"}}

	// Transport failures are never fatal; the client may retry
	case errors.Is(err, transport.ErrTransport):
		return &httpError{http.StatusBadGateway, APIError{CodeTransportError, err.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNotFoundError creates an error for a route that does not exist
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
}

// NewMethodNotAllowedError creates an error for a route that exists under another method
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, APIError{CodeMethodNotAllowed, "Method not allowed"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
