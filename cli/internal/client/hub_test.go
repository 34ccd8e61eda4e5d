package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-systems/parley-stack/hub/pkg/routesim"
)

func newSimClient(t *testing.T, sim *routesim.Simulator, token string) *HubClient {
	t.Helper()
	srv := httptest.NewServer(sim)
	t.Cleanup(srv.Close)
	return NewHubClient(srv.URL, token)
}

func TestListRooms(t *testing.T) {
	sim := routesim.New()
	sim.Handle(http.MethodGet, "/api/rooms", http.StatusOK, []Room{
		{ID: "r1", Name: "standup", Status: "active"},
		{ID: "r2", Name: "retro", Status: "idle"},
	})

	c := newSimClient(t, sim, "")
	rooms, err := c.ListRooms(false)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "standup", rooms[0].Name)

	_, err = c.ListRooms(true)
	require.NoError(t, err)

	reqs := sim.Requests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Query)
	assert.Equal(t, "include_archived=true", reqs[1].Query)
}

func TestCreateRoomSendsBodyAndToken(t *testing.T) {
	sim := routesim.New()
	sim.Handle(http.MethodPost, "/api/rooms", http.StatusCreated, Room{ID: "r1", Name: "standup"})

	c := newSimClient(t, sim, "tok-1")
	room, err := c.CreateRoom("standup", "daily sync")
	require.NoError(t, err)
	assert.Equal(t, "r1", room.ID)

	reqs := sim.Requests()
	require.Len(t, reqs, 1)

	var body map[string]string
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "standup", body["name"])
	assert.Equal(t, "daily sync", body["topic"])
}

func TestSetStatus(t *testing.T) {
	sim := routesim.New()
	sim.Handle(http.MethodPost, "/api/rooms/*/status", http.StatusOK, StatusUpdate{
		ID: "u1", RoomID: "r1", Status: "reviewing",
	})

	c := newSimClient(t, sim, "tok-1")
	update, err := c.SetStatus("r1", "reviewing", "ready for eyes")
	require.NoError(t, err)
	assert.Equal(t, "reviewing", update.Status)

	reqs := sim.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/rooms/r1/status", reqs[0].Path)
}

func TestStatusHistory(t *testing.T) {
	sim := routesim.New()
	sim.Handle(http.MethodGet, "/api/rooms/*/history", http.StatusOK, []StatusUpdate{
		{ID: "u2", Status: "reviewing"},
		{ID: "u1", Status: "active"},
	})

	c := newSimClient(t, sim, "")
	updates, err := c.StatusHistory("r1", 20)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "reviewing", updates[0].Status)

	reqs := sim.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "limit=20", reqs[0].Query)
}

func TestArchiveRoom(t *testing.T) {
	sim := routesim.New()
	sim.Handle(http.MethodDelete, "/api/rooms/*", http.StatusNoContent, nil)

	c := newSimClient(t, sim, "tok-1")
	assert.NoError(t, c.ArchiveRoom("r1"))
}

func TestErrorResponsesSurfaceBody(t *testing.T) {
	sim := routesim.New()
	sim.Handle(http.MethodGet, "/api/rooms/*", http.StatusNotFound, map[string]string{"error": "room not found"})

	c := newSimClient(t, sim, "")
	_, err := c.GetRoom("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "room not found")
}

func TestLogin(t *testing.T) {
	sim := routesim.New()
	sim.Handle(http.MethodPost, "/api/login", http.StatusOK, LoginResponse{AccessToken: "tok-9", ExpiresIn: 900})

	c := newSimClient(t, sim, "")
	resp, err := c.Login("alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok-9", resp.AccessToken)

	reqs := sim.Requests()
	require.Len(t, reqs, 1)
	var body map[string]string
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "alice", body["username"])
}
