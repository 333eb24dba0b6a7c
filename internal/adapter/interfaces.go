// Package adapter is the transport layer of the client.
//
// The primary abstraction is [APIClient], which decouples the service layer
// from the wire protocol. The package ships an HTTP implementation
// ([NewHTTPAPIClient]) that attaches the device/session header set to every
// request, classifies responses, and retries transient network failures with
// bounded exponential backoff.
//
// Error values defined in errors.go are mapped from response status and body
// shape by mapAPIError so that callers can use [errors.Is] for
// transport-agnostic error handling (e.g. [ErrUnauthorized] for
// login_required, [ErrChallengeRequired] for checkpoint_required).
package adapter

import (
	"context"

	"github.com/ospolov/go-dm-client/models"
)

// LoginPayload is the request body of POST /accounts/login/.
// SealedPassword is the versioned password envelope; the plaintext password
// never reaches this layer.
type LoginPayload struct {
	Username          string `json:"username"`
	SealedPassword    string `json:"enc_password"`
	DeviceID          string `json:"device_id"`
	PhoneID           string `json:"phone_id"`
	AdvertisingID     string `json:"adid"`
	LoginAttemptCount int    `json:"login_attempt_count"`
}

// TwoFactorPayload is the request body of POST /accounts/two_factor_login/.
type TwoFactorPayload struct {
	Username            string `json:"username"`
	VerificationCode    string `json:"verification_code"`
	TwoFactorIdentifier string `json:"two_factor_identifier"`
	DeviceID            string `json:"device_id"`
}

// BroadcastTextPayload is the request body of
// POST /direct_v2/threads/broadcast/text/. Exactly one of RecipientUserID or
// ThreadID addresses the message; ClientContext deduplicates retried sends
// server side.
type BroadcastTextPayload struct {
	RecipientUserID int64
	ThreadID        string
	Text            string
	ClientContext   string
}

// APIClient defines transport-agnostic communication with the private API.
// Implementations are responsible for serialisation, header management,
// bounded retry of transient failures, and mapping transport-level errors to
// the sentinel values defined in this package.
type APIClient interface {
	// Login posts the sealed credential payload. The decoded response is
	// returned with a nil error for every recognized auth-flow outcome
	// (success, two-factor prompt, bad password) so the caller can drive its
	// state transition; only transport-level failures produce an error.
	Login(ctx context.Context, payload LoginPayload) (models.LoginResponse, error)

	// TwoFactorLogin posts a one-time code resuming a two-factor prompt.
	// Response/error semantics match Login.
	TwoFactorLogin(ctx context.Context, payload TwoFactorPayload) (models.LoginResponse, error)

	// SubmitChallenge posts a verification code to the checkpoint path the
	// server handed out. Response/error semantics match Login.
	SubmitChallenge(ctx context.Context, apiPath, code string) (models.LoginResponse, error)

	// ReplayChallengeCode asks the server to deliver a fresh checkpoint code
	// through the previously selected channel.
	ReplayChallengeCode(ctx context.Context, apiPath string) error

	// Logout invalidates the server-side session. Requires authentication.
	Logout(ctx context.Context) error

	// CurrentUser fetches the account the session belongs to.
	CurrentUser(ctx context.Context) (models.User, error)

	// LookupUser resolves a username to its account record. Returns
	// ErrUserNotFound (wrapped) when no account matches.
	LookupUser(ctx context.Context, username string) (models.User, error)

	// Inbox fetches one page of the direct inbox. An empty cursor requests
	// the first page.
	Inbox(ctx context.Context, cursor string) (models.InboxPage, error)

	// Thread fetches one page of items of a single thread.
	Thread(ctx context.Context, threadID, cursor string) (models.ThreadPage, error)

	// BroadcastText sends a text message. Transient failures are retried by
	// the transport with the same wire payload, so the client context headed
	// to the server is stable across those retries.
	BroadcastText(ctx context.Context, payload BroadcastTextPayload) (models.SendResponse, error)
}
