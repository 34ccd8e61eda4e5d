package httputil

import (
	"net/http"
	"strconv"
	"strings"
)

// GetClientIP extracts the client IP, preferring proxy headers:
// X-Forwarded-For (first entry), then X-Real-IP, then RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// ParseIntParam parses an integer query parameter, returning defaultVal when
// the parameter is empty or invalid.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}

// BearerToken extracts the token from the request. It checks the
// Authorization header ("Bearer <token>") first, then the "token" query
// parameter. Browser WebSocket clients cannot set headers, so the live
// channel endpoint relies on the query form.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
