package routesim

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorCannedResponses(t *testing.T) {
	sim := New()
	sim.Handle(http.MethodGet, "/api/rooms", http.StatusOK, []map[string]string{
		{"id": "r1", "name": "standup", "status": "active"},
		{"id": "r2", "name": "retro", "status": "idle"},
	})

	srv := httptest.NewServer(sim)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var rooms []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 2)
	assert.Equal(t, "standup", rooms[0]["name"])
}

func TestSimulatorWildcardSegments(t *testing.T) {
	sim := New()
	sim.Handle(http.MethodGet, "/api/rooms/*", http.StatusOK, map[string]string{"id": "any"})
	sim.Handle(http.MethodGet, "/api/rooms/*/history", http.StatusOK, []string{})

	srv := httptest.NewServer(sim)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/rooms/abc-123")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// "*" matches exactly one segment, so the history route is needed for
	// the deeper path.
	resp, err = http.Get(srv.URL + "/api/rooms/abc-123/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSimulatorTrailingDoubleStar(t *testing.T) {
	sim := New()
	sim.Handle(http.MethodGet, "/api/**", http.StatusTeapot, nil)

	srv := httptest.NewServer(sim)
	defer srv.Close()

	for _, path := range []string{"/api/rooms", "/api/rooms/r1/history", "/api/anything/at/all"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusTeapot, resp.StatusCode, "path %s", path)
	}
}

func TestSimulatorRegistrationOrderWins(t *testing.T) {
	sim := New()
	sim.Handle(http.MethodGet, "/api/rooms/special", http.StatusOK, map[string]string{"id": "special"})
	sim.Handle(http.MethodGet, "/api/rooms/*", http.StatusNotFound, map[string]string{"error": "room not found"})

	srv := httptest.NewServer(sim)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/rooms/special")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/rooms/other")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSimulatorMethodMismatch(t *testing.T) {
	sim := New()
	sim.Handle(http.MethodPost, "/api/rooms", http.StatusCreated, nil)

	srv := httptest.NewServer(sim)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSimulatorRecordsRequests(t *testing.T) {
	sim := New()
	sim.Handle(http.MethodPost, "/api/rooms/*/status", http.StatusOK, nil)

	srv := httptest.NewServer(sim)
	defer srv.Close()

	body := `{"status":"reviewing"}`
	resp, err := http.Post(srv.URL+"/api/rooms/r1/status?actor=alice", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	// Unmatched requests are recorded too.
	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()

	reqs := sim.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/rooms/r1/status", reqs[0].Path)
	assert.Equal(t, "actor=alice", reqs[0].Query)
	assert.JSONEq(t, body, string(reqs[0].Body))
	assert.Equal(t, "/nope", reqs[1].Path)

	sim.Reset()
	assert.Empty(t, sim.Requests())
}

func TestSimulatorHandlerStillSeesBody(t *testing.T) {
	sim := New()
	var seen string
	sim.HandleFunc(http.MethodPost, "/echo", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(data)
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(sim)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/echo", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "hello", seen)
}
