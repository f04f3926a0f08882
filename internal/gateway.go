package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

// Configuration constants for the request gateway.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultOfflineLogInterval bounds how often an unreachable backend is
	// logged. Offline failures are otherwise silent.
	DefaultOfflineLogInterval = 30 * time.Second

	// maxRequestRetries is the number of extra attempts after a refresh.
	maxRequestRetries = 1

	// refreshPath is the token refresh endpoint.
	refreshPath = "refresh"

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// RequestOptions describes a single backend call. The zero value is a GET
// with no body and no extra headers.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// Gateway wraps every outbound call to the backend. It attaches bearer
// authorization, distinguishes network failure from auth failure, and
// performs a single bounded refresh-and-retry on HTTP errors.
//
// Connectivity state (the online flag and the offline-log timestamp) is owned
// by the Gateway instance so isolated instances can be constructed in tests.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	creds      *CredentialStore

	// onSessionTerminated is invoked synchronously when the refresh endpoint
	// rejects the stored credentials, after they have been cleared. It is the
	// client-side analog of forcing navigation back to the landing screen.
	onSessionTerminated func()

	now func() time.Time

	mu                 sync.Mutex
	backendOnline      bool
	lastOfflineLog     time.Time
	offlineLogInterval time.Duration
}

// NewGateway creates a gateway for the backend at baseURL. The underlying
// client carries a cookie jar so every request includes credentials.
func NewGateway(baseURL string, creds *CredentialStore) *Gateway {
	jar, _ := cookiejar.New(nil)
	return &Gateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
		creds:               creds,
		onSessionTerminated: func() {},
		now:                 time.Now,
		backendOnline:       true,
		offlineLogInterval:  DefaultOfflineLogInterval,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (g *Gateway) WithHTTPClient(client *http.Client) *Gateway {
	g.httpClient = client
	return g
}

// WithTimeout sets the request timeout.
func (g *Gateway) WithTimeout(timeout time.Duration) *Gateway {
	g.httpClient.Timeout = timeout
	return g
}

// WithSessionTerminatedHook sets the hook fired when a confirmed credential
// rejection tears down the session.
func (g *Gateway) WithSessionTerminatedHook(hook func()) *Gateway {
	if hook == nil {
		hook = func() {}
	}
	g.onSessionTerminated = hook
	return g
}

// WithOfflineLogInterval sets the minimum interval between offline log lines.
func (g *Gateway) WithOfflineLogInterval(interval time.Duration) *Gateway {
	g.offlineLogInterval = interval
	return g
}

// WithClock sets the time source used for offline-log rate limiting.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// BaseURL returns the configured backend host.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Online reports whether the last transport attempt reached the backend.
func (g *Gateway) Online() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.backendOnline
}

// authorizationHeader computes the bearer credential for a request. A
// non-empty access token takes precedence over the session token.
func (g *Gateway) authorizationHeader() string {
	if token := g.creds.AccessToken(); token != "" {
		return "Bearer " + token
	}
	return "Bearer " + g.creds.SessionToken()
}

// Request issues a call to <base host>/<path>. On a transport failure it
// fails with a NETWORK_ERROR without touching credentials. On a non-2xx
// response it refreshes the access token and retries once; past the retry
// budget the HTTP failure propagates.
func (g *Gateway) Request(ctx context.Context, path string, opts RequestOptions) (*http.Response, error) {
	return g.request(ctx, path, opts, 0)
}

func (g *Gateway) request(ctx context.Context, path string, opts RequestOptions, retryCount int) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+"/"+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Default authorization first; caller-supplied headers win on conflict.
	req.Header.Set("Authorization", g.authorizationHeader())
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	LogDebug("Request: %s /%s (attempt %d)", method, path, retryCount+1)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// No HTTP response received: the backend is unreachable, not
		// rejecting us. Never refresh, never clear credentials.
		g.markOffline(path, err)
		return nil, NewNetworkFailure(path, err)
	}

	g.markOnline()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := readErrorBody(resp)
		resp.Body.Close()

		if retryCount < maxRequestRetries {
			if err := g.refreshAccessToken(ctx); err != nil {
				return nil, err
			}
			return g.request(ctx, path, opts, retryCount+1)
		}
		return nil, NewHTTPFailure(path, resp.StatusCode, message)
	}

	return resp, nil
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Network failures propagate silently without clearing anything. A genuine
// rejection clears the access and refresh tokens and fires the session
// termination hook before returning.
func (g *Gateway) refreshAccessToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/"+refreshPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.creds.RefreshToken())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.markOffline(refreshPath, err)
		return NewNetworkFailure(refreshPath, err)
	}
	defer resp.Body.Close()

	g.markOnline()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Confirmed rejection: hard session termination, performed here as
		// part of failure handling rather than deferred to the caller.
		if err := g.creds.ClearRefreshPair(); err != nil {
			LogWarn("Failed to clear rejected credentials: %v", err)
		}
		g.onSessionTerminated()
		return NewAuthFailure(fmt.Sprintf("token refresh rejected (status %d)", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&payload); err != nil {
		// An undecodable refresh response leaves no usable token; the session
		// cannot continue, so tear it down like a rejection.
		if clearErr := g.creds.ClearRefreshPair(); clearErr != nil {
			LogWarn("Failed to clear rejected credentials: %v", clearErr)
		}
		g.onSessionTerminated()
		return NewAuthFailure(fmt.Sprintf("malformed refresh response: %v", err))
	}
	if err := g.creds.SetAccessToken(payload.AccessToken); err != nil {
		return err
	}

	LogDebug("Access token refreshed")
	return nil
}

// DoJSON issues a request with a JSON body (when in is non-nil) and decodes
// the JSON response into out (when out is non-nil).
func (g *Gateway) DoJSON(ctx context.Context, method, path string, in, out interface{}) error {
	opts := RequestOptions{
		Method: method,
		Headers: map[string]string{
			"Accept": "application/json",
		},
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		opts.Body = body
		opts.Headers["Content-Type"] = "application/json"
	}

	resp, err := g.Request(ctx, path, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response from /%s: %w", path, err)
	}
	return nil
}

// PublicJSON issues an unauthenticated GET outside the refresh-and-retry
// path, for public endpoints such as the leaderboard.
func (g *Gateway) PublicJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.markOffline(path, err)
		return NewNetworkFailure(path, err)
	}
	defer resp.Body.Close()

	g.markOnline()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewHTTPFailure(path, resp.StatusCode, readErrorBody(resp))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response from /%s: %w", path, err)
	}
	return nil
}

// markOffline records a transport failure, logging at most once per interval.
func (g *Gateway) markOffline(path string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.backendOnline = false
	now := g.now()
	if now.Sub(g.lastOfflineLog) >= g.offlineLogInterval {
		LogWarn("Backend unreachable (path /%s): %v", path, err)
		g.lastOfflineLog = now
	}
}

func (g *Gateway) markOnline() {
	g.mu.Lock()
	g.backendOnline = true
	g.mu.Unlock()
}

// readErrorBody extracts a human-readable message from an error response.
// JSON bodies with an "error" field reduce to that field.
func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil || len(body) == 0 {
		return resp.Status
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
