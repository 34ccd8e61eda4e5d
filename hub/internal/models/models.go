// Package models defines the hub's domain types and the live-channel wire
// format shared with clients.
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// EnvelopeVersion is the current wire format version stamped on every
// envelope sent over the live channel.
const EnvelopeVersion = "v1"

// Envelope kinds. Kind values are unique across the protocol; clients must
// ignore kinds they do not recognize.
const (
	KindStatusUpdate = "status_update"
	KindPresence     = "presence"
	KindPing         = "ping"
	KindError        = "error"
)

// Envelope is the live-channel wire format. Kind discriminates the payload,
// RoomID names the resource the message concerns, and Payload is interpreted
// per kind.
type Envelope struct {
	Kind    string          `json:"kind"`
	RoomID  string          `json:"room_id"`
	TS      time.Time       `json:"ts"`
	Version string          `json:"version"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the required envelope fields.
func (e *Envelope) Validate() error {
	if e.Kind == "" {
		return errors.New("envelope missing kind")
	}
	if e.RoomID == "" {
		return errors.New("envelope missing room_id")
	}
	if e.TS.IsZero() {
		return errors.New("envelope missing ts")
	}
	if e.Version == "" {
		return errors.New("envelope missing version")
	}
	return nil
}

// StatusPayload is the payload of a status_update envelope.
type StatusPayload struct {
	Status string `json:"status"`
	Actor  string `json:"actor,omitempty"`
	Note   string `json:"note,omitempty"`
}

// PresencePayload is the payload of a presence envelope.
type PresencePayload struct {
	Subscribers int64 `json:"subscribers"`
}

// ErrorPayload is the payload of an error envelope.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEnvelope builds an envelope of the given kind for a room, marshaling
// payload. The timestamp is server time in UTC.
func NewEnvelope(kind, roomID string, payload interface{}) (*Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Envelope{
		Kind:    kind,
		RoomID:  roomID,
		TS:      time.Now().UTC(),
		Version: EnvelopeVersion,
		Payload: raw,
	}, nil
}

// StatusEnvelope builds a status_update envelope.
func StatusEnvelope(roomID string, p StatusPayload) (*Envelope, error) {
	return NewEnvelope(KindStatusUpdate, roomID, p)
}

// Room statuses. The status value itself is free-form on the wire; these are
// the values the hub assigns.
const (
	RoomStatusIdle      = "idle"
	RoomStatusActive    = "active"
	RoomStatusReviewing = "reviewing"
	RoomStatusClosed    = "closed"
)

// Room is a chat/review room.
type Room struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Topic      string     `json:"topic,omitempty"`
	Status     string     `json:"status"`
	CreatedBy  string     `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Archived reports whether the room has been archived.
func (r *Room) Archived() bool {
	return r.ArchivedAt != nil
}

// StatusUpdate is one entry in a room's status history.
type StatusUpdate struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account that can authenticate against the hub.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateRoomRequest is the body for POST /api/rooms.
type CreateRoomRequest struct {
	Name  string `json:"name"`
	Topic string `json:"topic,omitempty"`
}

// SetStatusRequest is the body for POST /api/rooms/{id}/status.
type SetStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// LoginRequest is the body for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
