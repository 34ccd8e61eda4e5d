// Package ws implements the live channel: per-room WebSocket fan-out of
// status envelopes.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/parley-systems/parley-stack/common/logging"
	"github.com/parley-systems/parley-stack/hub/internal/metrics"
	"github.com/parley-systems/parley-stack/hub/internal/models"
)

// sendBuffer bounds the per-subscriber outbound queue. A subscriber that
// cannot drain this many envelopes is dropped rather than blocking the hub.
const sendBuffer = 32

// PresenceTracker records join/leave events per room. Implementations must
// tolerate failure; presence is best-effort.
type PresenceTracker interface {
	Join(ctx context.Context, roomID, userID string) (int64, error)
	Leave(ctx context.Context, roomID, userID string) (int64, error)
}

// StatusLookup returns a room's current status.
type StatusLookup func(ctx context.Context, roomID string) (string, error)

// Hub maintains the set of live subscribers per room and broadcasts
// envelopes to them.
type Hub struct {
	log      *logging.Logger
	presence PresenceTracker
	status   StatusLookup

	mu    sync.RWMutex
	rooms map[string]map[*subscriber]struct{}
}

// NewHub creates a Hub. presence may be nil.
func NewHub(log *logging.Logger, presence PresenceTracker) *Hub {
	if log == nil {
		log = logging.Default()
	}
	return &Hub{
		log:      log,
		presence: presence,
		rooms:    make(map[string]map[*subscriber]struct{}),
	}
}

// SetStatusLookup wires the current-status read used for snapshot frames.
// Called once at startup; separate from NewHub because the service needs the
// hub as its broadcaster.
func (h *Hub) SetStatusLookup(fn StatusLookup) {
	h.status = fn
}

// Broadcast sends env to every subscriber of the room. The envelope is
// marshaled once; subscribers that cannot keep up are disconnected.
func (h *Hub) Broadcast(roomID string, env *models.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.Error("failed to marshal envelope", "room_id", roomID, "error", err)
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.rooms[roomID]))
	for sub := range h.rooms[roomID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.send <- data:
			metrics.MessagesSent.Inc()
		default:
			// Slow consumer: drop it so one stuck client cannot stall
			// the room.
			h.log.Warn("dropping slow subscriber", "room_id", roomID)
			metrics.SlowSubscribersDropped.Inc()
			sub.stop()
		}
	}
}

// broadcastPresence announces the room's new subscriber count.
func (h *Hub) broadcastPresence(roomID string, subscribers int64) {
	env, err := models.NewEnvelope(models.KindPresence, roomID, models.PresencePayload{Subscribers: subscribers})
	if err != nil {
		return
	}
	h.Broadcast(roomID, env)
}

// SubscriberCount returns the number of live subscribers for a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// register adds sub and enqueues the room's current status as its first
// frame in one critical section. Broadcast serializes against this lock, so
// a transition committed before registration lands in the snapshot and one
// committed after is queued behind it; the subscriber cannot miss a
// transition or see the snapshot regress a newer status.
func (h *Hub) register(ctx context.Context, roomID string, sub *subscriber) {
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*subscriber]struct{})
	}
	if h.status != nil {
		if status, err := h.status(ctx, roomID); err != nil {
			h.log.Warn("snapshot status lookup failed", "room_id", roomID, "error", err)
		} else if env, err := models.StatusEnvelope(roomID, models.StatusPayload{Status: status}); err == nil {
			if data, err := json.Marshal(env); err == nil {
				sub.send <- data
			}
		}
	}
	h.rooms[roomID][sub] = struct{}{}
	n := len(h.rooms[roomID])
	h.mu.Unlock()

	metrics.ConnectionsActive.Inc()
	metrics.ConnectionsTotal.Inc()
	h.log.Debug("subscriber joined", "room_id", roomID, "subscribers", n)
}

func (h *Hub) unregister(roomID string, sub *subscriber) {
	h.mu.Lock()
	if subs, ok := h.rooms[roomID]; ok {
		if _, present := subs[sub]; present {
			delete(subs, sub)
			metrics.ConnectionsActive.Dec()
		}
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}
