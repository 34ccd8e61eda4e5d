package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "r1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "r1", body["id"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "room not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "room not found", body["error"])
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for first entry",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 192.168.1.1"},
			remote:  "127.0.0.1:1234",
			want:    "10.0.0.1",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{"X-Real-IP": "10.0.0.2"},
			remote:  "127.0.0.1:1234",
			want:    "10.0.0.2",
		},
		{
			name:   "remote addr fallback",
			remote: "127.0.0.1:1234",
			want:   "127.0.0.1:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestParseIntParam(t *testing.T) {
	assert.Equal(t, 42, ParseIntParam("42", 10))
	assert.Equal(t, 10, ParseIntParam("", 10))
	assert.Equal(t, 10, ParseIntParam("nope", 10))
	assert.Equal(t, -1, ParseIntParam("-1", 10))
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", BearerToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", BearerToken(r), "scheme is case-insensitive")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc123")
	assert.Equal(t, "", BearerToken(r))

	r = httptest.NewRequest(http.MethodGet, "/?token=query-token", nil)
	assert.Equal(t, "query-token", BearerToken(r))

	// Header wins over query.
	r = httptest.NewRequest(http.MethodGet, "/?token=query-token", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", BearerToken(r))
}
