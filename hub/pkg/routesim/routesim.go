// Package routesim provides a test double for the hub's HTTP API. Tests
// register wildcard route patterns with canned JSON responses and mount the
// simulator on an httptest.Server, so clients can be exercised without a
// running backend.
package routesim

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
)

// RecordedRequest captures one request the simulator served, for assertions.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

type route struct {
	method   string
	segments []string
	handler  http.HandlerFunc
}

// Simulator is an http.Handler that answers registered routes with canned
// responses and records every request it sees. Unmatched requests get 404.
type Simulator struct {
	mu       sync.Mutex
	routes   []route
	requests []RecordedRequest
}

func New() *Simulator {
	return &Simulator{}
}

// Handle registers a canned JSON response for a method and path pattern.
// Pattern segments may be "*" (matches any single segment); a trailing "**"
// matches the rest of the path. Routes match in registration order.
//
// Example:
//
//	sim.Handle(http.MethodGet, "/api/rooms", http.StatusOK, []models.Room{...})
//	sim.Handle(http.MethodGet, "/api/rooms/*", http.StatusNotFound, map[string]string{"error": "room not found"})
func (s *Simulator) Handle(method, pattern string, status int, body interface{}) {
	s.HandleFunc(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	})
}

// HandleFunc registers a custom handler for a method and path pattern.
func (s *Simulator) HandleFunc(method, pattern string, fn http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{
		method:   method,
		segments: splitPath(pattern),
		handler:  fn,
	})
}

// Requests returns a copy of every request served so far.
func (s *Simulator) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Reset clears recorded requests but keeps registered routes.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	s.mu.Lock()
	var matched *route
	for i := range s.routes {
		rt := &s.routes[i]
		if rt.method != "" && rt.method != r.Method {
			continue
		}
		if matchSegments(rt.segments, splitPath(r.URL.Path)) {
			matched = rt
			break
		}
	}
	s.mu.Unlock()

	if matched == nil {
		http.NotFound(w, r)
		return
	}
	matched.handler(w, r)
}

func (s *Simulator) record(r *http.Request) {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
	}
	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err == nil {
			rec.Body = body
			// Handlers may still want the body.
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pattern, path []string) bool {
	for i, seg := range pattern {
		if seg == "**" {
			return true
		}
		if i >= len(path) {
			return false
		}
		if seg != "*" && seg != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}
