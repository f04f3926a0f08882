package internal

import (
	"context"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lingoboard/lingoboard/testutil"
)

// newTestState creates a state database and credential store seeded with the
// given values.
func newTestState(t *testing.T, values map[string]string) (*StateDB, *CredentialStore) {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	db, err := OpenStateDB(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for key, value := range values {
		if err := db.Set(key, value); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}
	return db, NewCredentialStore(db)
}

func TestGatewayBearerPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		tokens   map[string]string
		wantAuth string
	}{
		{
			name: "access token preferred over session token",
			tokens: map[string]string{
				KeyAccessToken:  "access-1",
				KeySessionToken: "session-1",
			},
			wantAuth: "Bearer access-1",
		},
		{
			name: "session token used when access token absent",
			tokens: map[string]string{
				KeySessionToken: "session-1",
			},
			wantAuth: "Bearer session-1",
		},
		{
			name:     "empty bearer when nothing stored",
			tokens:   map[string]string{},
			wantAuth: "Bearer ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			server := testutil.NewBackend(t, map[string]http.HandlerFunc{
				"/ping": func(w http.ResponseWriter, r *http.Request) {
					gotAuth = r.Header.Get("Authorization")
					testutil.StatusHandler(http.StatusOK)(w, r)
				},
			})

			_, creds := newTestState(t, tt.tokens)
			gw := NewGateway(server.URL, creds)

			resp, err := gw.Request(context.Background(), "ping", RequestOptions{})
			if err != nil {
				t.Fatalf("Request() error = %v", err)
			}
			resp.Body.Close()

			if gotAuth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", gotAuth, tt.wantAuth)
			}
		})
	}
}

func TestGatewayCallerHeadersWin(t *testing.T) {
	var gotAuth string
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/ping": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			testutil.StatusHandler(http.StatusOK)(w, r)
		},
	})

	_, creds := newTestState(t, map[string]string{KeyAccessToken: "stored"})
	gw := NewGateway(server.URL, creds)

	resp, err := gw.Request(context.Background(), "ping", RequestOptions{
		Headers: map[string]string{"Authorization": "Bearer caller-supplied"},
	})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer caller-supplied" {
		t.Errorf("Authorization = %q, want caller-supplied header to win", gotAuth)
	}
}

func TestGatewayNetworkFailure(t *testing.T) {
	// A server that is already closed produces a transport-level error.
	server := testutil.NewBackend(t, nil)
	server.Close()

	_, creds := newTestState(t, map[string]string{
		KeyAccessToken:  "access-1",
		KeyRefreshToken: "refresh-1",
	})

	terminated := false
	gw := NewGateway(server.URL, creds).
		WithSessionTerminatedHook(func() { terminated = true })

	_, err := gw.Request(context.Background(), "viewUser", RequestOptions{})
	if err == nil {
		t.Fatal("Request() expected error for unreachable backend")
	}

	failure, ok := AsFailure(err)
	if !ok || failure.Kind != FailureNetwork {
		t.Fatalf("Request() error = %v, want NETWORK_ERROR", err)
	}
	if !failure.Silent {
		t.Error("network failure should be marked silent")
	}
	if failure.Path != "viewUser" {
		t.Errorf("failure.Path = %q, want %q", failure.Path, "viewUser")
	}

	// Transport failure must never tear down the session.
	if terminated {
		t.Error("session terminated hook fired on network failure")
	}
	if creds.AccessToken() != "access-1" || creds.RefreshToken() != "refresh-1" {
		t.Error("credentials cleared on network failure")
	}
	if gw.Online() {
		t.Error("Online() = true after transport failure")
	}
}

func TestGatewayRefreshAndRetry(t *testing.T) {
	var refreshCalls int32
	const freshToken = "fresh-token"

	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/data": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+freshToken {
				testutil.StatusHandler(http.StatusUnauthorized)(w, r)
				return
			}
			testutil.JSONHandler(http.StatusOK, map[string]string{"ok": "yes"})(w, r)
		},
		"/refresh": func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&refreshCalls, 1)
			if r.Header.Get("Authorization") != "Bearer refresh-1" {
				testutil.StatusHandler(http.StatusUnauthorized)(w, r)
				return
			}
			testutil.JSONHandler(http.StatusOK, map[string]string{"accessToken": freshToken})(w, r)
		},
	})

	_, creds := newTestState(t, map[string]string{
		KeyAccessToken:  "stale-token",
		KeyRefreshToken: "refresh-1",
	})
	gw := NewGateway(server.URL, creds)

	resp, err := gw.Request(context.Background(), "data", RequestOptions{})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	resp.Body.Close()

	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Errorf("refresh called %d times, want exactly 1", got)
	}
	if creds.AccessToken() != freshToken {
		t.Errorf("AccessToken() = %q, want %q after refresh", creds.AccessToken(), freshToken)
	}
}

func TestGatewayRetryBudget(t *testing.T) {
	var dataCalls, refreshCalls int32

	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/data": func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&dataCalls, 1)
			testutil.JSONHandler(http.StatusInternalServerError, map[string]string{"error": "boom"})(w, r)
		},
		"/refresh": func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&refreshCalls, 1)
			testutil.JSONHandler(http.StatusOK, map[string]string{"accessToken": "t2"})(w, r)
		},
	})

	_, creds := newTestState(t, map[string]string{KeyAccessToken: "t1", KeyRefreshToken: "r1"})
	gw := NewGateway(server.URL, creds)

	_, err := gw.Request(context.Background(), "data", RequestOptions{})
	failure, ok := AsFailure(err)
	if !ok || failure.Kind != FailureHTTP {
		t.Fatalf("Request() error = %v, want HTTP_ERROR", err)
	}
	if failure.Status != http.StatusInternalServerError {
		t.Errorf("failure.Status = %d, want %d", failure.Status, http.StatusInternalServerError)
	}
	if failure.Message != "boom" {
		t.Errorf("failure.Message = %q, want %q", failure.Message, "boom")
	}

	// One original attempt, one refresh, one retry, then the error propagates.
	if got := atomic.LoadInt32(&dataCalls); got != 2 {
		t.Errorf("data called %d times, want 2", got)
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Errorf("refresh called %d times, want 1", got)
	}
}

func TestGatewayRefreshRejectionTerminatesSession(t *testing.T) {
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/data":    testutil.StatusHandler(http.StatusUnauthorized),
		"/refresh": testutil.StatusHandler(http.StatusForbidden),
	})

	_, creds := newTestState(t, map[string]string{
		KeyAccessToken:  "a1",
		KeyRefreshToken: "r1",
		KeySessionToken: "s1",
	})

	terminated := 0
	gw := NewGateway(server.URL, creds).
		WithSessionTerminatedHook(func() { terminated++ })

	_, err := gw.Request(context.Background(), "data", RequestOptions{})
	failure, ok := AsFailure(err)
	if !ok || failure.Kind != FailureAuth {
		t.Fatalf("Request() error = %v, want AUTH_ERROR", err)
	}

	if terminated != 1 {
		t.Errorf("session terminated hook fired %d times, want 1", terminated)
	}
	if creds.AccessToken() != "" || creds.RefreshToken() != "" {
		t.Error("access/refresh tokens should be cleared on confirmed rejection")
	}
	// The session token is not part of the refresh pair.
	if creds.SessionToken() != "s1" {
		t.Errorf("SessionToken() = %q, want preserved", creds.SessionToken())
	}
}

func TestGatewayMalformedRefreshTerminatesSession(t *testing.T) {
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/data": testutil.StatusHandler(http.StatusUnauthorized),
		"/refresh": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>gateway error</html>"))
		},
	})

	_, creds := newTestState(t, map[string]string{
		KeyAccessToken:  "a1",
		KeyRefreshToken: "r1",
	})

	terminated := 0
	gw := NewGateway(server.URL, creds).
		WithSessionTerminatedHook(func() { terminated++ })

	_, err := gw.Request(context.Background(), "data", RequestOptions{})
	failure, ok := AsFailure(err)
	if !ok || failure.Kind != FailureAuth {
		t.Fatalf("Request() error = %v, want AUTH_ERROR", err)
	}

	// A 2xx refresh without a decodable token still ends the session.
	if terminated != 1 {
		t.Errorf("session terminated hook fired %d times, want 1", terminated)
	}
	if creds.AccessToken() != "" || creds.RefreshToken() != "" {
		t.Error("access/refresh tokens should be cleared on malformed refresh response")
	}
}

func TestGatewayRefreshNetworkFailureStaysSilent(t *testing.T) {
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/data": testutil.StatusHandler(http.StatusUnauthorized),
		"/refresh": func(w http.ResponseWriter, r *http.Request) {
			// Drop the connection mid-request so the client sees a
			// transport error rather than an HTTP response.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack failed: %v", err)
				return
			}
			conn.Close()
		},
	})

	_, creds := newTestState(t, map[string]string{
		KeyAccessToken:  "a1",
		KeyRefreshToken: "r1",
	})

	terminated := false
	gw := NewGateway(server.URL, creds).
		WithSessionTerminatedHook(func() { terminated = true })

	_, err := gw.Request(context.Background(), "data", RequestOptions{})
	if !IsNetworkFailure(err) {
		t.Fatalf("Request() error = %v, want NETWORK_ERROR", err)
	}

	// An unreachable refresh endpoint is not a rejection.
	if terminated {
		t.Error("session terminated hook fired on refresh transport failure")
	}
	if creds.AccessToken() != "a1" || creds.RefreshToken() != "r1" {
		t.Error("credentials cleared on refresh transport failure")
	}
}

func TestGatewayOfflineLogRateLimit(t *testing.T) {
	server := testutil.NewBackend(t, nil)
	server.Close()

	_, creds := newTestState(t, nil)

	now := time.Unix(1000, 0)
	gw := NewGateway(server.URL, creds).
		WithClock(func() time.Time { return now }).
		WithOfflineLogInterval(30 * time.Second)

	for i := 0; i < 3; i++ {
		_, _ = gw.Request(context.Background(), "ping", RequestOptions{})
	}

	// Only the first failure inside the interval counts as logged.
	gw.mu.Lock()
	first := gw.lastOfflineLog
	gw.mu.Unlock()
	if !first.Equal(time.Unix(1000, 0)) {
		t.Fatalf("lastOfflineLog = %v, want %v", first, time.Unix(1000, 0))
	}

	now = now.Add(31 * time.Second)
	_, _ = gw.Request(context.Background(), "ping", RequestOptions{})

	gw.mu.Lock()
	second := gw.lastOfflineLog
	gw.mu.Unlock()
	if !second.Equal(time.Unix(1031, 0)) {
		t.Fatalf("lastOfflineLog = %v, want advanced after interval", second)
	}
}

func TestGatewayOnlineRecovers(t *testing.T) {
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/ping": testutil.StatusHandler(http.StatusOK),
	})

	_, creds := newTestState(t, nil)
	gw := NewGateway(server.URL, creds)

	// Force offline state, then observe recovery on the next success.
	gw.markOffline("ping", nil)
	if gw.Online() {
		t.Fatal("Online() = true after markOffline")
	}

	resp, err := gw.Request(context.Background(), "ping", RequestOptions{})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	resp.Body.Close()

	if !gw.Online() {
		t.Error("Online() = false after successful request")
	}
}
