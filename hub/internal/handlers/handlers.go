// Package handlers provides the hub's HTTP and WebSocket handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parley-systems/parley-stack/common/httputil"
	"github.com/parley-systems/parley-stack/common/logging"
	"github.com/parley-systems/parley-stack/hub/internal/metrics"
	"github.com/parley-systems/parley-stack/hub/internal/middleware"
	"github.com/parley-systems/parley-stack/hub/internal/models"
	"github.com/parley-systems/parley-stack/hub/internal/repository"
	"github.com/parley-systems/parley-stack/hub/internal/service"
	"github.com/parley-systems/parley-stack/hub/internal/ws"
)

type Handler struct {
	service *service.Service
	hub     *ws.Hub
	log     *logging.Logger
}

func NewHandler(svc *service.Service, hub *ws.Hub, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Default()
	}
	return &Handler{service: svc, hub: hub, log: log}
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("denied").Inc()
			httputil.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.ErrorContext(r.Context(), "login failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ListRooms handles GET /api/rooms. The response body is a JSON array.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	rooms, err := h.service.ListRooms(r.Context(), includeArchived)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list rooms", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rooms)
}

// CreateRoom handles POST /api/rooms.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.service.CreateRoom(r.Context(), &req, middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRoomName) {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "failed to create room", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, room)
}

// GetRoom handles GET /api/rooms/{id}.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "room not found")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to get room", "room_id", roomID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to get room")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, room)
}

// StatusHistory handles GET /api/rooms/{id}/history.
func (h *Handler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), 50)

	updates, err := h.service.StatusHistory(r.Context(), roomID, limit)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "room not found")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to get history", "room_id", roomID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to get history")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updates)
}

// SetStatus handles POST /api/rooms/{id}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	var req models.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update, err := h.service.SetStatus(r.Context(), roomID, &req, middleware.GetUsername(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			metrics.StatusUpdatesTotal.WithLabelValues("http", "invalid").Inc()
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrRoomNotFound):
			metrics.StatusUpdatesTotal.WithLabelValues("http", "not_found").Inc()
			httputil.WriteError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, repository.ErrRoomArchived):
			metrics.StatusUpdatesTotal.WithLabelValues("http", "archived").Inc()
			httputil.WriteError(w, http.StatusConflict, "room is archived")
		default:
			metrics.StatusUpdatesTotal.WithLabelValues("http", "error").Inc()
			h.log.ErrorContext(r.Context(), "failed to set status", "room_id", roomID, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to set status")
		}
		return
	}

	metrics.StatusUpdatesTotal.WithLabelValues("http", "ok").Inc()
	httputil.WriteJSON(w, http.StatusOK, update)
}

// ArchiveRoom handles DELETE /api/rooms/{id}.
func (h *Handler) ArchiveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	err := h.service.ArchiveRoom(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			httputil.WriteError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, repository.ErrRoomArchived):
			httputil.WriteError(w, http.StatusConflict, "room is already archived")
		default:
			h.log.ErrorContext(r.Context(), "failed to archive room", "room_id", roomID, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to archive room")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ServeWS handles GET /ws/rooms/{id}. Auth and room lookup happen before the
// upgrade so failures surface as plain HTTP status codes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "room not found")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to get room", "room_id", roomID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to get room")
		return
	}

	if err := h.hub.ServeRoom(w, r, room, middleware.GetUserID(r.Context())); err != nil {
		h.log.Debug("live channel closed", "room_id", roomID, "error", err)
	}
}
