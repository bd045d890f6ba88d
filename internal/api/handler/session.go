package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsroom/internal/api/apierr"
	"github.com/mcoot/rpsroom/internal/api/request"
	"github.com/mcoot/rpsroom/internal/api/response"
	"github.com/mcoot/rpsroom/internal/api/sse"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/services/room"
)

// SessionHandler exposes the room coordinator's triggers and state
type SessionHandler struct {
	coordinator room.CoordinatorInterface
	hub         *sse.Hub
	logger      *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(coordinator room.CoordinatorInterface, hub *sse.Hub, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		coordinator: coordinator,
		hub:         hub,
		logger:      logger,
	}
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SessionFromModel(h.coordinator.Snapshot()))
}

// CreateRoom handles POST /api/v1/rooms
func (h *SessionHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if _, err := h.coordinator.CreateRoom(r.Context()); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.SessionFromModel(h.coordinator.Snapshot()))
}

// JoinRoom handles POST /api/v1/rooms/{room_id}/join
func (h *SessionHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.JoinRoom(r.Context(), mux.Vars(r)["room_id"]); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(h.coordinator.Snapshot()))
}

// SubmitMove handles POST /api/v1/moves
func (h *SessionHandler) SubmitMove(w http.ResponseWriter, r *http.Request) {
	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}

	move, err := model.ParseMove(req.Move)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := h.coordinator.SubmitMove(r.Context(), move); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(h.coordinator.Snapshot()))
}

// Reset handles POST /api/v1/session/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Reset()
	response.JSON(w, http.StatusOK, response.SessionFromModel(h.coordinator.Snapshot()))
}

// Events handles GET /api/v1/events
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	hello, err := sse.SessionMessage(h.coordinator.Snapshot())
	if err != nil {
		h.logger.Error("failed to encode session snapshot", slog.String("error", err.Error()))
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}
	sse.ServeSSE(w, r, h.hub, hello)
}
