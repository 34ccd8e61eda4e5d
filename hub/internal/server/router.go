package server

import (
	"net/http"

	"github.com/parley-systems/parley-stack/common/middleware"
	"github.com/parley-systems/parley-stack/hub/internal/handlers"
	hubmiddleware "github.com/parley-systems/parley-stack/hub/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter constructs the hub's ServeMux with all routes registered.
func NewRouter(h *handlers.Handler, auth *hubmiddleware.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/login", h.Login)

	mux.HandleFunc("GET /api/rooms", h.ListRooms)
	mux.HandleFunc("POST /api/rooms", auth.RequireAuth(h.CreateRoom))
	mux.HandleFunc("GET /api/rooms/{id}", h.GetRoom)
	mux.HandleFunc("GET /api/rooms/{id}/history", h.StatusHistory)
	mux.HandleFunc("POST /api/rooms/{id}/status", auth.RequireAuth(h.SetStatus))
	mux.HandleFunc("DELETE /api/rooms/{id}", auth.RequireAuth(h.ArchiveRoom))

	// Live channel. Browser clients pass the token as a query parameter
	// because WebSocket upgrades cannot carry custom headers.
	mux.HandleFunc("GET /ws/rooms/{id}", auth.RequireAuth(h.ServeWS))

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return middleware.RequestID(cors(mux))
}
