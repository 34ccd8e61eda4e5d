// Package client provides the HTTP client the CLI uses to talk to the hub.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HubClient talks to the hub's REST API.
type HubClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// Room mirrors the hub's room representation.
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

// StatusUpdate mirrors one entry of a room's status history.
type StatusUpdate struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewHubClient(baseURL, token string) *HubClient {
	return &HubClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges credentials for an access token.
func (c *HubClient) Login(username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRooms fetches the rooms listing.
func (c *HubClient) ListRooms(includeArchived bool) ([]Room, error) {
	path := "/api/rooms"
	if includeArchived {
		path += "?include_archived=true"
	}

	var rooms []Room
	if err := c.do(http.MethodGet, path, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a room.
func (c *HubClient) CreateRoom(name, topic string) (*Room, error) {
	var room Room
	err := c.do(http.MethodPost, "/api/rooms", map[string]string{
		"name":  name,
		"topic": topic,
	}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoom fetches one room.
func (c *HubClient) GetRoom(id string) (*Room, error) {
	var room Room
	if err := c.do(http.MethodGet, "/api/rooms/"+id, nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// SetStatus records a status transition on a room.
func (c *HubClient) SetStatus(roomID, status, note string) (*StatusUpdate, error) {
	var update StatusUpdate
	err := c.do(http.MethodPost, "/api/rooms/"+roomID+"/status", map[string]string{
		"status": status,
		"note":   note,
	}, &update)
	if err != nil {
		return nil, err
	}
	return &update, nil
}

// StatusHistory fetches a room's recent status transitions.
func (c *HubClient) StatusHistory(roomID string, limit int) ([]StatusUpdate, error) {
	path := fmt.Sprintf("/api/rooms/%s/history?limit=%d", roomID, limit)

	var updates []StatusUpdate
	if err := c.do(http.MethodGet, path, nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// ArchiveRoom archives a room.
func (c *HubClient) ArchiveRoom(id string) error {
	return c.do(http.MethodDelete, "/api/rooms/"+id, nil, nil)
}

func (c *HubClient) do(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (%d): %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
