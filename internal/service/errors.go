package service

import "errors"

var (
	// ErrOperationInProgress is returned when an auth transition is submitted
	// while another one is still in flight.
	ErrOperationInProgress = errors.New("authentication operation already in progress")

	// ErrAuthFailed marks the terminal Failed state. The wrapped message
	// carries the reason (bad credentials, disabled account, attempts
	// exhausted) without ever including the password.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrCodeRejected is returned when a one-time code is wrong or expired
	// but attempts remain; the flow stays in its waiting state.
	ErrCodeRejected = errors.New("verification code rejected")

	// ErrNoPendingChallenge is returned when a code is submitted and no
	// matching verification step is waiting for one.
	ErrNoPendingChallenge = errors.New("no pending verification step")

	// ErrAlreadyLoggedIn is returned by SubmitLogin while a session is live.
	ErrAlreadyLoggedIn = errors.New("already logged in")

	// ErrNotLoggedIn is returned by operations that require a live session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrCacheUnavailable is returned by cached reads when no local cache is
	// wired in.
	ErrCacheUnavailable = errors.New("local cache unavailable")

	ErrValidationNoUsername  = errors.New("no username provided")
	ErrValidationNoPassword  = errors.New("no password provided")
	ErrValidationNoRecipient = errors.New("no recipient provided")
	ErrValidationNoThread    = errors.New("no thread id provided")
	ErrValidationNoText      = errors.New("no message text provided")
)
