package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/parley-systems/parley-stack/hub/internal/models"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

type subscriber struct {
	send     chan []byte
	stopOnce func()
}

func (s *subscriber) stop() {
	s.stopOnce()
}

// ServeRoom upgrades the request to a WebSocket and streams the room's
// envelopes until the client disconnects or ctx is done. The first frame is
// always a status_update carrying the room's current status so clients
// converge immediately.
func (h *Hub) ServeRoom(w http.ResponseWriter, r *http.Request, room *models.Room, userID string) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The hub sits behind the web origin; cross-origin browser
		// clients are expected during development.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(r.Context())
	sub := &subscriber{
		send:     make(chan []byte, sendBuffer),
		stopOnce: cancel,
	}

	h.register(ctx, room.ID, sub)
	defer h.unregister(room.ID, sub)

	if h.presence != nil {
		if n, err := h.presence.Join(ctx, room.ID, userID); err != nil {
			h.log.Warn("presence join failed", "room_id", room.ID, "error", err)
		} else {
			h.broadcastPresence(room.ID, n)
		}
		defer func() {
			// The request context is gone by now; give leave its own deadline.
			leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer leaveCancel()
			if n, err := h.presence.Leave(leaveCtx, room.ID, userID); err != nil {
				h.log.Warn("presence leave failed", "room_id", room.ID, "error", err)
			} else {
				h.broadcastPresence(room.ID, n)
			}
		}()
	}

	// Reader drains and discards inbound frames; its only job is to detect
	// the peer closing or failing.
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	pings := time.NewTicker(pingInterval)
	defer pings.Stop()

	for {
		select {
		case data := <-sub.send:
			writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			writeCancel()
			if err != nil {
				conn.Close(websocket.StatusInternalError, "write failed")
				return err
			}
		case <-pings.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				conn.Close(websocket.StatusInternalError, "ping failed")
				return err
			}
		case err := <-readErr:
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
				return nil
			}
			return err
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		}
	}
}
