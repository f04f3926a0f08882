package internal

// User represents the authenticated account as returned by /viewUser.
type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"personName,omitempty"`
	Email          string `json:"email,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Credits        *int   `json:"credits,omitempty"`
	PrivilegeLevel int    `json:"privilegeLevel"`
}

// APIKey represents a generated API key as returned by /getAPIKeys.
type APIKey struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Chat represents a chat workspace as returned by /retrieve-all-chats.
type Chat struct {
	ID        int64  `json:"id"`
	Name      string `json:"chat_name"`
	ChatType  int    `json:"chat_type"`
	ModelType int    `json:"model_type,omitempty"`
}

// LeaderboardEntry represents a single submission on the public leaderboard.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	ModelName   string  `json:"model_name"`
	Score       float64 `json:"score"`
	DatasetName string  `json:"dataset_name"`
	SubmittedAt string  `json:"submitted_at"`
}

// LoginRequest carries the credential material for /login. Email/password and
// product hash are all optional; whichever are set become query parameters.
type LoginRequest struct {
	Email         string
	Password      string
	ProductHash   string
	FreeTrialCode string
}

// LoginResponse is the payload returned by /login. When AuthURL is set the
// client must hand control to that URL to complete the session.
type LoginResponse struct {
	AuthURL      string `json:"auth_url,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	SessionToken string `json:"sessionToken,omitempty"`
}

// Response envelopes for store operations.

type apiKeysResponse struct {
	Keys []APIKey `json:"keys"`
}

type chatListResponse struct {
	ChatInfo []Chat `json:"chat_info"`
}

type createChatResponse struct {
	ChatID   int64  `json:"chat_id"`
	ChatName string `json:"chat_name"`
}

type creditsResponse struct {
	NumCredits *int `json:"numCredits,omitempty"`
	NewCredits *int `json:"newCredits,omitempty"`
}

type leaderboardResponse struct {
	Success     bool               `json:"success"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type apiErrorBody struct {
	Error string `json:"error,omitempty"`
}
