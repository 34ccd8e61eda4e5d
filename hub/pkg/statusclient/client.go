// Package statusclient watches a room's status over the hub's live channel.
//
// A Watcher dials the per-room WebSocket endpoint, reports "connected" once
// the channel opens, and tracks the most recent server-reported status. When
// the channel fails unexpectedly it reconnects with exponential backoff and
// jitter; a clean close from the server ends the watch without an error.
package statusclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/parley-systems/parley-stack/hub/internal/models"
)

// Watcher tracks one room's status over the live channel.
type Watcher struct {
	cfg    Config
	roomID string

	mu     sync.RWMutex
	status string
	err    error

	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
}

// Watch starts watching roomID. The watcher runs until ctx is canceled,
// Close is called, or the server closes the channel cleanly.
func Watch(ctx context.Context, cfg Config, roomID string) (*Watcher, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("statusclient: BaseURL is required")
	}
	if roomID == "" {
		return nil, errors.New("statusclient: roomID is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		cfg:     cfg.withDefaults(),
		roomID:  roomID,
		status:  StatusConnecting,
		updates: make(chan Update, 16),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go w.run(ctx)
	return w, nil
}

// Status returns the most recently observed status value.
func (w *Watcher) Status() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Err returns the most recent channel error, or nil. A clean close leaves
// the error nil.
func (w *Watcher) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}

// Updates returns the stream of observed transitions. The channel is closed
// when the watcher stops. Slow readers miss intermediate transitions rather
// than stalling the watcher; Status always holds the latest value.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Done is closed when the watcher has fully stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close stops the watcher and releases its connection.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.updates)

	backoff := w.cfg.InitialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := w.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.setError(fmt.Errorf("statusclient: dial: %w", err))
			if !w.sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, w.cfg.MaxBackoff)
			continue
		}

		// Channel is open: converge on "connected" and clear any error
		// from a previous attempt.
		w.setStatus(StatusConnected, "", "", time.Now().UTC())
		w.setError(nil)
		backoff = w.cfg.InitialBackoff

		readErr := w.readLoop(ctx, conn)
		if ctx.Err() != nil {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		if websocket.CloseStatus(readErr) == websocket.StatusNormalClosure {
			// The server ended the stream deliberately. Not an error,
			// and not a condition to retry out of.
			w.setStatusValue(StatusDisconnected)
			return
		}

		w.setError(fmt.Errorf("statusclient: channel failed: %w", readErr))
		w.setStatusValue(StatusDisconnected)

		if !w.sleep(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, w.cfg.MaxBackoff)
	}
}

func (w *Watcher) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(w.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/rooms/" + w.roomID
	if w.cfg.Token != "" {
		q := u.Query()
		q.Set("token", w.cfg.Token)
		u.RawQuery = q.Encode()
	}

	dialCtx, cancel := context.WithTimeout(ctx, w.cfg.DialTimeout)
	defer cancel()

	opts := &websocket.DialOptions{
		HTTPClient: w.cfg.HTTPClient,
	}
	if w.cfg.Token != "" {
		opts.HTTPHeader = http.Header{
			"Authorization": {"Bearer " + w.cfg.Token},
		}
	}

	conn, _, err := websocket.Dial(dialCtx, u.String(), opts)
	return conn, err
}

// readLoop consumes envelopes until the connection fails or ctx is done.
// It returns the read error that ended the loop.
func (w *Watcher) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		// Can't use wsjson here: it closes the connection on decode
		// errors, and the channel carries heterogeneous kinds.
		_, reader, err := conn.Reader(ctx)
		if err != nil {
			return err
		}

		var env models.Envelope
		if err := json.NewDecoder(reader).Decode(&env); err != nil {
			continue
		}

		w.handleEnvelope(&env)
	}
}

func (w *Watcher) handleEnvelope(env *models.Envelope) {
	// Forward compatibility: ignore kinds we do not recognize.
	if env.Kind != models.KindStatusUpdate {
		return
	}

	var payload models.StatusPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}
	if payload.Status == "" {
		return
	}

	w.setStatus(payload.Status, payload.Actor, payload.Note, env.TS)
}

func (w *Watcher) setStatus(status, actor, note string, ts time.Time) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()

	update := Update{
		RoomID: w.roomID,
		Status: status,
		Actor:  actor,
		Note:   note,
		TS:     ts,
	}
	select {
	case w.updates <- update:
	default:
	}
}

func (w *Watcher) setStatusValue(status string) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}

func (w *Watcher) setError(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

func (w *Watcher) sleep(ctx context.Context, d time.Duration) bool {
	// Jitter up to 25% to avoid thundering herds of reconnecting clients.
	d += time.Duration(rand.Int63n(int64(d)/4 + 1))
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
