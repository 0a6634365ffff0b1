package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/roomserver/internal/api/handler"
	"github.com/mcoot/roomserver/internal/api/middleware"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/transport/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Hub      *ws.Hub
	Registry *registry.Registry
}

// NewRouter creates the HTTP router: the game socket plus the admin API
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Game socket; only the upgrade request is logged
	r.Handle("/ws", middleware.Logging(cfg.Logger)(cfg.Hub)).Methods(http.MethodGet)

	roomHandler := handler.NewRoomHandler(cfg.Hub, cfg.Registry)
	statsHandler := handler.NewStatsHandler(cfg.Hub, cfg.Registry)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(apiMiddleware(cfg.Logger)...)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)

	return r
}

// apiMiddleware wraps admin routes. Logging runs outermost so the request id
// it assigns is visible to Recovery.
func apiMiddleware(logger *slog.Logger) []mux.MiddlewareFunc {
	return []mux.MiddlewareFunc{
		middleware.Logging(logger),
		middleware.Recovery(logger),
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
