package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsroom/internal/api/apierr"
	"github.com/mcoot/rpsroom/internal/api/handler"
	"github.com/mcoot/rpsroom/internal/api/middleware"
	"github.com/mcoot/rpsroom/internal/api/response"
	"github.com/mcoot/rpsroom/internal/api/sse"
	"github.com/mcoot/rpsroom/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator room.CoordinatorInterface
	Hub         *sse.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.Coordinator, cfg.Hub, cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Unmatched requests get JSON errors; the subrouter needs its own handlers
	// since a method mismatch inside it is not reported to r
	for _, rt := range []*mux.Router{r, api} {
		rt.NotFoundHandler = http.HandlerFunc(notFoundHandler)
		rt.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)
	}

	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	api.HandleFunc("/session", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/session/reset", sessionHandler.Reset).Methods(http.MethodPost)
	api.HandleFunc("/rooms", sessionHandler.CreateRoom).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/join", sessionHandler.JoinRoom).Methods(http.MethodPost)
	api.HandleFunc("/moves", sessionHandler.SubmitMove).Methods(http.MethodPost)
	api.HandleFunc("/events", sessionHandler.Events).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	apierr.WriteError(w, apierr.NewMethodNotAllowedError())
}
