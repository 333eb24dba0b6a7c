// Package service contains the application logic of the client: the
// authentication state machine and the direct-messaging façade. Services sit
// between the CLI and the transport adapter, own the session state, and never
// touch the wire format themselves.
package service

import (
	"context"

	"github.com/ospolov/go-dm-client/models"
)

// AuthService drives authentication as an explicit state machine:
//
//	Unauthenticated → AwaitingTwoFactor | AwaitingChallenge → Authenticated
//
// with Failed as the terminal state of a flow. A fresh SubmitLogin restarts
// the machine from Unauthenticated or Failed. All transitions are
// non-reentrant: a second submit while one is in flight returns
// ErrOperationInProgress.
type AuthService interface {
	// State returns the current machine state.
	State() AuthState

	// PendingChallenge returns the verification step currently awaiting a
	// code, if any. The second return is false outside the waiting states.
	PendingChallenge() (models.AuthChallenge, bool)

	// SubmitLogin seals the password and posts the credential payload.
	// The returned state tells the caller what comes next: Authenticated,
	// AwaitingTwoFactor, AwaitingChallenge, or Failed (with the error
	// wrapping ErrAuthFailed). The plaintext password is never stored,
	// logged, or sent.
	SubmitLogin(ctx context.Context, username, password string) (AuthState, error)

	// SubmitTwoFactorCode resumes an AwaitingTwoFactor flow with a one-time
	// code. A wrong or expired code keeps the machine waiting and returns
	// ErrCodeRejected until the attempt budget is exhausted, then the flow
	// fails terminally.
	SubmitTwoFactorCode(ctx context.Context, code string) (AuthState, error)

	// SubmitChallengeCode resumes an AwaitingChallenge flow with the code
	// the server delivered out of band. Attempt semantics match
	// SubmitTwoFactorCode.
	SubmitChallengeCode(ctx context.Context, code string) (AuthState, error)

	// ResendCode asks the server to deliver a fresh code for the pending
	// security challenge. Returns ErrNoPendingChallenge when nothing is
	// waiting for a code.
	ResendCode(ctx context.Context) error

	// Logout invalidates the server session, wipes the local auth state and
	// deletes the persisted snapshot. The local wipe happens even when the
	// server call fails.
	Logout(ctx context.Context) error
}

// DirectService is the messaging façade. Fetched threads and messages are
// written through into the local cache so the last-seen state stays readable
// offline.
type DirectService interface {
	// ListInbox fetches the full inbox, newest threads first.
	ListInbox(ctx context.Context) ([]models.Thread, error)

	// CachedInbox serves the last cached inbox snapshot without any network
	// call.
	CachedInbox(ctx context.Context) ([]models.Thread, error)

	// ThreadMessages fetches all items of one thread, newest first.
	ThreadMessages(ctx context.Context, threadID string) ([]models.Message, error)

	// CachedThreadMessages serves the cached items of one thread.
	CachedThreadMessages(ctx context.Context, threadID string) ([]models.Message, error)

	// SendText delivers a text message. recipient is a username or, when
	// numeric, a user ID (which skips the lookup round trip). Returns the
	// server-assigned thread and item identifiers.
	SendText(ctx context.Context, recipient, text string) (models.SendResult, error)

	// SendTextToThread delivers a text message into an existing thread
	// instead of addressing a recipient. Returns the server-assigned thread
	// and item identifiers.
	SendTextToThread(ctx context.Context, threadID, text string) (models.SendResult, error)

	// CurrentUser fetches the account the live session belongs to.
	CurrentUser(ctx context.Context) (models.User, error)
}
