package adapter

import (
	"errors"
	"fmt"

	"github.com/ospolov/go-dm-client/models"
)

var (
	// ErrUnauthorized means the server no longer accepts the session
	// credentials (login_required). The caller must re-authenticate; the
	// transport never retries this.
	ErrUnauthorized = errors.New("login required")

	// ErrChallengeRequired means the server raised a checkpoint that must be
	// resolved by an explicit caller-driven step. Never auto-resolved.
	ErrChallengeRequired = errors.New("challenge required")

	// ErrRateLimited means the server throttled the request (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient marks network-level failures (timeout, connection reset)
	// that were retried up to the configured bound and still failed.
	ErrTransient = errors.New("transient network failure")

	// ErrUserNotFound means a username lookup matched no account.
	ErrUserNotFound = errors.New("user not found")
)

// ServerError preserves the HTTP status of an unclassified 4xx/5xx response.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error: http %d", e.Status)
	}
	return fmt.Sprintf("server error: http %d: %s", e.Status, e.Body)
}

// ChallengeRequiredError carries the resumable challenge context alongside
// the ErrChallengeRequired sentinel, so callers can both errors.Is and
// errors.As on it.
type ChallengeRequiredError struct {
	Challenge models.AuthChallenge
}

func (e *ChallengeRequiredError) Error() string {
	return fmt.Sprintf("challenge required: %s", e.Challenge.Kind)
}

func (e *ChallengeRequiredError) Unwrap() error {
	return ErrChallengeRequired
}
