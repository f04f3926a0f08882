package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewBackend starts a fake backend serving the given routes, keyed by path
// (for example "/viewUser"). Unrouted paths return 404.
func NewBackend(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, handler := range routes {
		mux.HandleFunc(path, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// JSONHandler replies with status and a JSON-encoded body.
func JSONHandler(status int, body interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// StatusHandler replies with status and an empty JSON object.
func StatusHandler(status int) http.HandlerFunc {
	return JSONHandler(status, map[string]interface{}{})
}
