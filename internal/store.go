package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// OpClass names an operation class for loading/error tracking. Views read the
// per-class status instead of receiving exceptions.
type OpClass string

const (
	OpLoadCurrentUser OpClass = "loadCurrentUser"
	OpLoadAPIKeys     OpClass = "loadAPIKeys"
	OpCreateAPIKey    OpClass = "createAPIKey"
	OpDeleteAPIKey    OpClass = "deleteAPIKey"
	OpLoadChats       OpClass = "loadChats"
	OpCreateChat      OpClass = "createChat"
	OpRenameChat      OpClass = "renameChat"
	OpDeleteChat      OpClass = "deleteChat"
	OpCredits         OpClass = "credits"
	OpLogin           OpClass = "login"
	OpAccount         OpClass = "account"
	OpIngest          OpClass = "ingest"
)

// OpStatus is the pending/last-error state of one operation class.
type OpStatus struct {
	Loading bool
	Err     string
}

// Store holds the normalized client-side state: the current user, API keys,
// chats, and the credit balance. All durable truth lives on the backend; the
// store caches it and exposes pure selectors over the cached tables.
//
// Concurrent invocations of the same operation are not de-duplicated;
// last-resolved-wins on the shared tables.
type Store struct {
	gw    *Gateway
	creds *CredentialStore
	db    *StateDB

	// navigate is invoked when a login response carries an authorization URL
	// that must complete the session out-of-band.
	navigate func(url string)

	mu            sync.RWMutex
	users         *Table[int64, User]
	apiKeys       *Table[int64, APIKey]
	chats         []Chat
	currentUser   int64 // 0 = unset
	numCredits    int
	lastChatFetch time.Time
	status        map[OpClass]*OpStatus

	// cleared is set by Logout so a later SaveState does not re-create the
	// snapshot it just deleted. A new login resets it.
	cleared bool
}

// NewStore creates a store over the given gateway and state database.
func NewStore(gw *Gateway, creds *CredentialStore, db *StateDB) *Store {
	return &Store{
		gw:       gw,
		creds:    creds,
		db:       db,
		navigate: func(url string) { LogInfo("Authorization URL: %s", url) },
		users:    NewTable[int64, User](),
		apiKeys:  NewTable[int64, APIKey](),
		status:   make(map[OpClass]*OpStatus),
	}
}

// WithNavigateHook sets the hook invoked for login authorization URLs.
func (s *Store) WithNavigateHook(hook func(url string)) *Store {
	if hook != nil {
		s.navigate = hook
	}
	return s
}

func (s *Store) begin(op OpClass) {
	s.mu.Lock()
	s.status[op] = &OpStatus{Loading: true}
	s.mu.Unlock()
}

// finish records the operation outcome and returns err unchanged, so
// operations can record-and-propagate in one step.
func (s *Store) finish(op OpClass, err error) error {
	s.mu.Lock()
	st := &OpStatus{}
	if err != nil {
		st.Err = err.Error()
	}
	s.status[op] = st
	s.mu.Unlock()
	return err
}

// Status returns the loading flag and last error for an operation class.
func (s *Store) Status(op OpClass) OpStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.status[op]; ok {
		return *st
	}
	return OpStatus{}
}

// ---------------------------------------------------------------------------
// User and credits

// LoadCurrentUser fetches /viewUser and replaces the user table with the
// single fetched user. The credit scalar is synced from the user record.
// On failure the table is left untouched.
func (s *Store) LoadCurrentUser(ctx context.Context) error {
	s.begin(OpLoadCurrentUser)

	var user User
	if err := s.gw.DoJSON(ctx, http.MethodGet, "viewUser", nil, &user); err != nil {
		return s.finish(OpLoadCurrentUser, err)
	}

	s.mu.Lock()
	s.users.Clear()
	s.users.Upsert(user.ID, user)
	s.currentUser = user.ID
	if user.Credits != nil {
		s.numCredits = *user.Credits
	}
	s.mu.Unlock()
	return s.finish(OpLoadCurrentUser, nil)
}

// RefreshCredits fetches the server-authoritative balance from
// /refreshCredits and overwrites both the scalar and the mirrored field on
// the current user record.
func (s *Store) RefreshCredits(ctx context.Context) error {
	s.begin(OpCredits)

	var resp creditsResponse
	if err := s.gw.DoJSON(ctx, http.MethodPost, "refreshCredits", struct{}{}, &resp); err != nil {
		return s.finish(OpCredits, err)
	}
	if resp.NumCredits == nil {
		return s.finish(OpCredits, fmt.Errorf("refreshCredits returned no balance"))
	}

	s.setCredits(*resp.NumCredits)
	return s.finish(OpCredits, nil)
}

// DeductCredits asks the backend to deduct n credits and overwrites the local
// balance with the returned value. The server value is authoritative; no
// local arithmetic happens here.
func (s *Store) DeductCredits(ctx context.Context, n int) error {
	s.begin(OpCredits)

	body := struct {
		CreditsToDeduct int `json:"creditsToDeduct"`
	}{CreditsToDeduct: n}

	var resp creditsResponse
	if err := s.gw.DoJSON(ctx, http.MethodPost, "deductCredits", body, &resp); err != nil {
		return s.finish(OpCredits, err)
	}
	if resp.NewCredits != nil {
		s.setCredits(*resp.NewCredits)
	}
	return s.finish(OpCredits, nil)
}

// setCredits keeps the scalar and the current user record's credits field in
// lockstep.
func (s *Store) setCredits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.numCredits = n
	if s.currentUser != 0 {
		if user, ok := s.users.Get(s.currentUser); ok {
			user.Credits = &n
			s.users.Upsert(s.currentUser, user)
		}
	}
}

// ---------------------------------------------------------------------------
// API keys

// LoadAPIKeys fetches /getAPIKeys and replaces the key table wholesale. The
// table is a cache of the backend's current key list, not merged state.
func (s *Store) LoadAPIKeys(ctx context.Context) error {
	s.begin(OpLoadAPIKeys)

	var resp apiKeysResponse
	if err := s.gw.DoJSON(ctx, http.MethodGet, "getAPIKeys", nil, &resp); err != nil {
		return s.finish(OpLoadAPIKeys, err)
	}

	s.mu.Lock()
	s.apiKeys.Clear()
	for _, key := range resp.Keys {
		s.apiKeys.Upsert(key.ID, key)
	}
	s.mu.Unlock()
	return s.finish(OpLoadAPIKeys, nil)
}

// CreateAPIKey generates a new key via /generateAPIKey and appends it to the
// table. Failure payloads (for example insufficient credits) surface to the
// caller without mutating the table.
func (s *Store) CreateAPIKey(ctx context.Context, name string) (*APIKey, error) {
	s.begin(OpCreateAPIKey)

	body := struct {
		Name string `json:"name"`
	}{Name: name}

	resp, err := s.gw.Request(ctx, "generateAPIKey", jsonOptions(http.MethodPost, body))
	if err != nil {
		return nil, s.finish(OpCreateAPIKey, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, s.finish(OpCreateAPIKey, fmt.Errorf("failed to read response: %w", err))
	}

	// The backend reports refusals inside an otherwise-successful payload.
	var apiErr apiErrorBody
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
		return nil, s.finish(OpCreateAPIKey, fmt.Errorf("%s", apiErr.Error))
	}

	var key APIKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, s.finish(OpCreateAPIKey, fmt.Errorf("failed to parse response: %w", err))
	}

	s.mu.Lock()
	s.apiKeys.Upsert(key.ID, key)
	s.mu.Unlock()
	return &key, s.finish(OpCreateAPIKey, nil)
}

// DeleteAPIKey removes a key via /deleteAPIKey, then drops it from the table.
// The local removal waits for backend confirmation.
func (s *Store) DeleteAPIKey(ctx context.Context, id int64) error {
	s.begin(OpDeleteAPIKey)

	body := struct {
		APIKeyID int64 `json:"api_key_id"`
	}{APIKeyID: id}

	if err := s.gw.DoJSON(ctx, http.MethodPost, "deleteAPIKey", body, nil); err != nil {
		return s.finish(OpDeleteAPIKey, err)
	}

	s.mu.Lock()
	s.apiKeys.Remove(id)
	s.mu.Unlock()
	return s.finish(OpDeleteAPIKey, nil)
}

// ---------------------------------------------------------------------------
// Chats

// LoadChats fetches /retrieve-all-chats for the given chat type and replaces
// the chat list wholesale. On failure the prior list is preserved, so a
// transient outage does not blank the sidebar.
func (s *Store) LoadChats(ctx context.Context, chatType int) error {
	s.begin(OpLoadChats)

	body := struct {
		ChatType int `json:"chat_type"`
	}{ChatType: chatType}

	var resp chatListResponse
	if err := s.gw.DoJSON(ctx, http.MethodPost, "retrieve-all-chats", body, &resp); err != nil {
		return s.finish(OpLoadChats, err)
	}

	s.mu.Lock()
	s.chats = resp.ChatInfo
	s.lastChatFetch = time.Now()
	s.mu.Unlock()
	return s.finish(OpLoadChats, nil)
}

// CreateChat creates a chat via /create-new-chat and prepends it to the list.
func (s *Store) CreateChat(ctx context.Context, chatType, modelType int) (*Chat, error) {
	s.begin(OpCreateChat)

	body := struct {
		ChatType  int `json:"chat_type"`
		ModelType int `json:"model_type"`
	}{ChatType: chatType, ModelType: modelType}

	var resp createChatResponse
	if err := s.gw.DoJSON(ctx, http.MethodPost, "create-new-chat", body, &resp); err != nil {
		return nil, s.finish(OpCreateChat, err)
	}

	chat := Chat{ID: resp.ChatID, Name: resp.ChatName, ChatType: chatType, ModelType: modelType}
	s.mu.Lock()
	s.chats = append([]Chat{chat}, s.chats...)
	s.mu.Unlock()
	return &chat, s.finish(OpCreateChat, nil)
}

// RenameChat renames a chat via /update-chat-name. The local entry is mutated
// only after the backend confirms; a failed round-trip changes nothing.
func (s *Store) RenameChat(ctx context.Context, id int64, name string) error {
	s.begin(OpRenameChat)

	body := struct {
		ChatID   int64  `json:"chat_id"`
		ChatName string `json:"chat_name"`
	}{ChatID: id, ChatName: name}

	if err := s.gw.DoJSON(ctx, http.MethodPost, "update-chat-name", body, nil); err != nil {
		return s.finish(OpRenameChat, err)
	}

	s.mu.Lock()
	for i := range s.chats {
		if s.chats[i].ID == id {
			s.chats[i].Name = name
			break
		}
	}
	s.mu.Unlock()
	return s.finish(OpRenameChat, nil)
}

// DeleteChat deletes a chat via /delete-chat, then removes it from the list.
// Like RenameChat this is pessimistic: no local mutation until confirmation.
func (s *Store) DeleteChat(ctx context.Context, id int64) error {
	s.begin(OpDeleteChat)

	body := struct {
		ChatID int64 `json:"chat_id"`
	}{ChatID: id}

	if err := s.gw.DoJSON(ctx, http.MethodPost, "delete-chat", body, nil); err != nil {
		return s.finish(OpDeleteChat, err)
	}

	s.mu.Lock()
	kept := s.chats[:0]
	for _, chat := range s.chats {
		if chat.ID != id {
			kept = append(kept, chat)
		}
	}
	s.chats = kept
	s.mu.Unlock()
	return s.finish(OpDeleteChat, nil)
}

// IngestPDF uploads a document into a chat via /ingest-pdf. This is the one
// multipart endpoint; everything else speaks JSON.
func (s *Store) IngestPDF(ctx context.Context, chatID int64, filename string, r io.Reader) error {
	s.begin(OpIngest)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return s.finish(OpIngest, fmt.Errorf("failed to build upload: %w", err))
	}
	if _, err := io.Copy(part, r); err != nil {
		return s.finish(OpIngest, fmt.Errorf("failed to read %s: %w", filename, err))
	}
	if err := w.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return s.finish(OpIngest, fmt.Errorf("failed to build upload: %w", err))
	}
	if err := w.Close(); err != nil {
		return s.finish(OpIngest, fmt.Errorf("failed to build upload: %w", err))
	}

	resp, err := s.gw.Request(ctx, "ingest-pdf", RequestOptions{
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": w.FormDataContentType()},
		Body:    buf.Bytes(),
	})
	if err != nil {
		return s.finish(OpIngest, err)
	}
	resp.Body.Close()
	return s.finish(OpIngest, nil)
}

// ---------------------------------------------------------------------------
// Session lifecycle

// Login starts a session. Credential material travels as query parameters on
// /login. When the response carries an authorization URL the navigate hook
// receives it; otherwise any issued tokens are stored.
func (s *Store) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	s.begin(OpLogin)

	query := url.Values{}
	if req.Email != "" || req.Password != "" {
		query.Set("email", req.Email)
		query.Set("password", req.Password)
	}
	if req.ProductHash != "" {
		query.Set("product_hash", req.ProductHash)
		query.Set("free_trial_code", req.FreeTrialCode)
	}
	path := "login"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp LoginResponse
	if err := s.gw.DoJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, s.finish(OpLogin, err)
	}

	s.mu.Lock()
	s.cleared = false
	s.mu.Unlock()

	if resp.AuthURL != "" {
		s.navigate(resp.AuthURL)
		return &resp, s.finish(OpLogin, nil)
	}

	if resp.AccessToken != "" || resp.RefreshToken != "" {
		if err := s.creds.StoreLoginTokens(resp.AccessToken, resp.RefreshToken); err != nil {
			return nil, s.finish(OpLogin, err)
		}
	}
	if resp.SessionToken != "" {
		if err := s.creds.SetSessionToken(resp.SessionToken); err != nil {
			return nil, s.finish(OpLogin, err)
		}
	}
	return &resp, s.finish(OpLogin, nil)
}

// Logout tears down the local session: all three credential strings, the
// persisted snapshot, every entity table, and the credit scalar. It is
// idempotent and succeeds locally regardless of network state.
func (s *Store) Logout() {
	if err := s.creds.ClearSession(); err != nil {
		LogWarn("Failed to clear credentials: %v", err)
	}
	if err := s.db.Delete(KeyPersistRoot); err != nil {
		LogWarn("Failed to clear persisted state: %v", err)
	}

	s.mu.Lock()
	s.users.Clear()
	s.apiKeys.Clear()
	s.chats = nil
	s.currentUser = 0
	s.numCredits = 0
	s.cleared = true
	s.mu.Unlock()
}

// SignUp registers a new account via /signUp.
func (s *Store) SignUp(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	return s.accountCall(ctx, "signUp", payload)
}

// ForgotPassword requests a password reset email via /forgotPassword.
func (s *Store) ForgotPassword(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	return s.accountCall(ctx, "forgotPassword", payload)
}

// ResetPassword completes a password reset via /resetPassword.
func (s *Store) ResetPassword(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	return s.accountCall(ctx, "resetPassword", payload)
}

// accountCall is a passthrough POST: the payloads of the account endpoints
// are opaque to the store.
func (s *Store) accountCall(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	s.begin(OpAccount)

	var raw json.RawMessage
	if err := s.gw.DoJSON(ctx, http.MethodPost, path, payload, &raw); err != nil {
		return nil, s.finish(OpAccount, err)
	}
	return raw, s.finish(OpAccount, nil)
}

// ---------------------------------------------------------------------------
// Selectors

// CurrentUser returns the active user record. The second return value is
// false when no user is loaded.
func (s *Store) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == 0 {
		return User{}, false
	}
	return s.users.Get(s.currentUser)
}

// Credits returns the credit balance scalar.
func (s *Store) Credits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numCredits
}

// APIKeys returns the key list in table insertion order.
func (s *Store) APIKeys() []APIKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKeys.Values()
}

// Chats returns a copy of the chat list.
func (s *Store) Chats() []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats := make([]Chat, len(s.chats))
	copy(chats, s.chats)
	return chats
}

// LastChatFetch returns when the chat list was last replaced from the
// backend, or the zero time if never.
func (s *Store) LastChatFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastChatFetch
}

// ---------------------------------------------------------------------------
// Snapshot persistence

// storeSnapshot is the serialized form of the store, persisted under
// persist:root for session restoration.
type storeSnapshot struct {
	Users       *Table[int64, User]   `json:"users"`
	APIKeys     *Table[int64, APIKey] `json:"apiKeys"`
	Chats       []Chat                `json:"chats"`
	CurrentUser int64                 `json:"currentUser"`
	NumCredits  int                   `json:"numCredits"`
}

// SaveState writes the current store state into the state database. After a
// logout the snapshot stays deleted until a new session starts.
func (s *Store) SaveState() error {
	s.mu.RLock()
	if s.cleared {
		s.mu.RUnlock()
		return nil
	}
	snapshot := storeSnapshot{
		Users:       s.users,
		APIKeys:     s.apiKeys,
		Chats:       s.chats,
		CurrentUser: s.currentUser,
		NumCredits:  s.numCredits,
	}
	data, err := json.Marshal(snapshot)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	return s.db.Set(KeyPersistRoot, string(data))
}

// RestoreState loads the persisted snapshot, if any, into the store. A
// missing snapshot is not an error.
func (s *Store) RestoreState() error {
	data, ok, err := s.db.Get(KeyPersistRoot)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var snapshot storeSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return fmt.Errorf("failed to parse persisted state: %w", err)
	}

	s.mu.Lock()
	if snapshot.Users != nil {
		s.users = snapshot.Users
	}
	if snapshot.APIKeys != nil {
		s.apiKeys = snapshot.APIKeys
	}
	s.chats = snapshot.Chats
	s.currentUser = snapshot.CurrentUser
	s.numCredits = snapshot.NumCredits
	s.mu.Unlock()
	return nil
}

// jsonOptions builds RequestOptions for a JSON call. Marshal errors surface
// as an empty body; the backend rejects those and the gateway classifies it.
func jsonOptions(method string, body interface{}) RequestOptions {
	data, err := json.Marshal(body)
	if err != nil {
		LogWarn("Failed to marshal request body: %v", err)
		data = nil
	}
	return RequestOptions{
		Method: method,
		Headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		Body: data,
	}
}
