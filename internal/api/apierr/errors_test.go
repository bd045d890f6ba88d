package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/transport"
)

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid room id", model.ErrInvalidRoomID, http.StatusBadRequest, CodeInvalidRoomID},
		{"invalid move", fmt.Errorf("parse: %w", model.ErrInvalidMove), http.StatusBadRequest, CodeInvalidMove},
		{"room active", model.ErrRoomActive, http.StatusConflict, CodeRoomActive},
		{"no active room", model.ErrNoActiveRoom, http.StatusConflict, CodeNoActiveRoom},
		{"not started", model.ErrNotStarted, http.StatusServiceUnavailable, CodeNotStarted},
		{"transport", transport.Wrap("publish", "rps-room", errors.New("connection reset")), http.StatusBadGateway, CodeTransportError},
		{"invalid request", NewInvalidRequestError("bad body"), http.StatusBadRequest, CodeInvalidRequest},
		{"not found", NewNotFoundError(), http.StatusNotFound, CodeNotFound},
		{"method not allowed", NewMethodNotAllowedError(), http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := toHTTPError(tt.err)
			assert.Equal(t, tt.status, he.status)
			assert.Equal(t, tt.code, he.apiError.Code)
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteError(rr, model.ErrRoomActive)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeRoomActive, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Message)
}
