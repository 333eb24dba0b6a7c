package models

// Wire envelopes for the private API. Every response carries a "status"
// field ("ok" or "fail"); failures additionally carry "message" and
// "error_type" which drive transport-level error classification.

// APIStatus is the envelope shared by all API responses.
type APIStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// OK reports whether the server accepted the request.
func (s APIStatus) OK() bool { return s.Status == "ok" }

// User is the account record returned by lookup and current-user endpoints.
type User struct {
	UserID   int64  `json:"pk"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// LoginResponse is the payload of POST /accounts/login/ and of the
// two-factor and challenge resolution endpoints.
type LoginResponse struct {
	APIStatus

	LoggedInUser *User `json:"logged_in_user,omitempty"`

	TwoFactorRequired bool           `json:"two_factor_required,omitempty"`
	TwoFactorInfo     *TwoFactorInfo `json:"two_factor_info,omitempty"`

	Challenge *ChallengeInfo `json:"challenge,omitempty"`
}

// TwoFactorInfo carries the resumable context of a two-factor prompt.
type TwoFactorInfo struct {
	TwoFactorIdentifier   string `json:"two_factor_identifier"`
	ObfuscatedPhoneNumber string `json:"obfuscated_phone_number,omitempty"`
}

// ChallengeInfo carries the resumable context of a checkpoint.
type ChallengeInfo struct {
	APIPath string `json:"api_path"`
}

// UserLookupResponse is the payload of GET /users/{username}/usernameinfo/.
type UserLookupResponse struct {
	APIStatus
	User *User `json:"user,omitempty"`
}

// InboxPage is one page of GET /direct_v2/inbox/.
type InboxPage struct {
	APIStatus
	Inbox struct {
		Threads      []Thread `json:"threads"`
		HasOlder     bool     `json:"has_older"`
		OldestCursor string   `json:"oldest_cursor,omitempty"`
	} `json:"inbox"`
}

// ThreadPage is one page of GET /direct_v2/threads/{id}/.
type ThreadPage struct {
	APIStatus
	Thread struct {
		ThreadID     string    `json:"thread_id"`
		Items        []Message `json:"items"`
		HasOlder     bool      `json:"has_older"`
		OldestCursor string    `json:"oldest_cursor,omitempty"`
	} `json:"thread"`
}

// SendResponse is the payload of POST /direct_v2/threads/broadcast/text/.
type SendResponse struct {
	APIStatus
	Payload *SendResult `json:"payload,omitempty"`
}

// CurrentUserResponse is the payload of GET /accounts/current_user/.
type CurrentUserResponse struct {
	APIStatus
	User *User `json:"user,omitempty"`
}
