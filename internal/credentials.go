package internal

// Fixed keys in the state database. The three token keys mirror the names the
// backend issues them under; persist:root holds the serialized store snapshot.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeySessionToken = "sessionToken"
	KeyPersistRoot  = "persist:root"
)

// CredentialStore manages the session credential strings in the state
// database. The Gateway reads them for auth headers and writes the access
// token on refresh; logout clears all three.
type CredentialStore struct {
	db *StateDB
}

// NewCredentialStore creates a credential store over db.
func NewCredentialStore(db *StateDB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (c *CredentialStore) get(key string) string {
	value, ok, err := c.db.Get(key)
	if err != nil {
		LogWarn("Failed to read %s: %v", key, err)
		return ""
	}
	if !ok {
		return ""
	}
	return value
}

// AccessToken returns the stored access token, or "" when unset.
func (c *CredentialStore) AccessToken() string {
	return c.get(KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when unset.
func (c *CredentialStore) RefreshToken() string {
	return c.get(KeyRefreshToken)
}

// SessionToken returns the stored session token, or "" when unset.
func (c *CredentialStore) SessionToken() string {
	return c.get(KeySessionToken)
}

// SetAccessToken stores a newly issued access token.
func (c *CredentialStore) SetAccessToken(token string) error {
	return c.db.Set(KeyAccessToken, token)
}

// SetSessionToken stores the session token.
func (c *CredentialStore) SetSessionToken(token string) error {
	return c.db.Set(KeySessionToken, token)
}

// StoreLoginTokens stores the access and refresh tokens issued at login.
func (c *CredentialStore) StoreLoginTokens(accessToken, refreshToken string) error {
	if err := c.db.Set(KeyAccessToken, accessToken); err != nil {
		return err
	}
	return c.db.Set(KeyRefreshToken, refreshToken)
}

// ClearRefreshPair removes the access and refresh tokens. Called when the
// refresh endpoint confirms the credentials are rejected.
func (c *CredentialStore) ClearRefreshPair() error {
	return c.db.DeleteMany(KeyAccessToken, KeyRefreshToken)
}

// ClearSession removes all three credential strings atomically.
func (c *CredentialStore) ClearSession() error {
	return c.db.DeleteMany(KeyAccessToken, KeyRefreshToken, KeySessionToken)
}

// HasCredentials reports whether any credential string is present.
func (c *CredentialStore) HasCredentials() bool {
	return c.AccessToken() != "" || c.RefreshToken() != "" || c.SessionToken() != ""
}
