package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ospolov/go-dm-client/internal/adapter"
	"github.com/ospolov/go-dm-client/internal/crypto"
	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/session"
	"github.com/ospolov/go-dm-client/models"
)

// AuthState names a position of the authentication state machine.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateAwaitingTwoFactor
	StateAwaitingChallenge
	StateAuthenticated
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingTwoFactor:
		return "awaiting_two_factor"
	case StateAwaitingChallenge:
		return "awaiting_challenge"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const defaultMaxCodeAttempts = 3

type authService struct {
	api       adapter.APIClient
	sess      *session.State
	snapshots *session.FileStore
	sealer    crypto.PasswordSealer
	logger    *logger.Logger

	maxCodeAttempts int

	// inFlight serializes transitions without holding mu across the network
	// call.
	inFlight atomic.Bool

	mu            sync.Mutex
	state         AuthState
	username      string
	challenge     models.AuthChallenge
	codeAttempts  int
	loginAttempts int
}

// NewAuthService constructs the authentication state machine bound to the
// given session. A session restored as authenticated starts the machine in
// Authenticated.
func NewAuthService(api adapter.APIClient, sess *session.State, snapshots *session.FileStore, sealer crypto.PasswordSealer, maxCodeAttempts int, log *logger.Logger) AuthService {
	if maxCodeAttempts <= 0 {
		maxCodeAttempts = defaultMaxCodeAttempts
	}

	state := StateUnauthenticated
	if sess.IsAuthenticated() {
		state = StateAuthenticated
	}

	return &authService{
		api:             api,
		sess:            sess,
		snapshots:       snapshots,
		sealer:          sealer,
		logger:          log,
		maxCodeAttempts: maxCodeAttempts,
		state:           state,
	}
}

// State implements [AuthService].
func (a *authService) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// PendingChallenge implements [AuthService].
func (a *authService) PendingChallenge() (models.AuthChallenge, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	waiting := a.state == StateAwaitingTwoFactor || a.state == StateAwaitingChallenge
	return a.challenge, waiting
}

// SubmitLogin implements [AuthService].
func (a *authService) SubmitLogin(ctx context.Context, username, password string) (AuthState, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return a.State(), ErrValidationNoUsername
	}
	if password == "" {
		return a.State(), ErrValidationNoPassword
	}

	if !a.inFlight.CompareAndSwap(false, true) {
		return a.State(), ErrOperationInProgress
	}
	defer a.inFlight.Store(false)

	a.mu.Lock()
	if a.state == StateAuthenticated {
		a.mu.Unlock()
		return StateAuthenticated, ErrAlreadyLoggedIn
	}
	// каждый SubmitLogin перезапускает машину с нуля
	a.state = StateUnauthenticated
	a.username = username
	a.challenge = models.AuthChallenge{}
	a.codeAttempts = 0
	a.loginAttempts++
	attempt := a.loginAttempts
	a.mu.Unlock()

	sealed, err := a.sealer.Seal(password, time.Now())
	if err != nil {
		return StateUnauthenticated, fmt.Errorf("seal password: %w", err)
	}

	device := a.sess.Device()
	resp, err := a.api.Login(ctx, adapter.LoginPayload{
		Username:          username,
		SealedPassword:    sealed,
		DeviceID:          device.DeviceID,
		PhoneID:           device.PhoneID,
		AdvertisingID:     device.AdvertisingID,
		LoginAttemptCount: attempt,
	})
	if err != nil {
		var challengeErr *adapter.ChallengeRequiredError
		if errors.As(err, &challengeErr) {
			return a.await(StateAwaitingChallenge, challengeErr.Challenge), nil
		}
		// transport failure: no transition, the caller may retry
		return StateUnauthenticated, err
	}

	switch {
	case resp.OK() && resp.LoggedInUser != nil:
		return a.finishLogin(*resp.LoggedInUser)

	case resp.TwoFactorRequired:
		ch := models.AuthChallenge{Kind: models.ChallengeTwoFactor}
		if resp.TwoFactorInfo != nil {
			ch.Identifier = resp.TwoFactorInfo.TwoFactorIdentifier
			ch.DeliveryHint = resp.TwoFactorInfo.ObfuscatedPhoneNumber
		}
		return a.await(StateAwaitingTwoFactor, ch), nil

	case resp.ErrorType == "bad_password" || resp.ErrorType == "invalid_user":
		return a.fail("username or password rejected")

	case resp.ErrorType == "account_disabled":
		return a.fail("account disabled")

	default:
		return a.fail("unrecognized login response")
	}
}

// SubmitTwoFactorCode implements [AuthService].
func (a *authService) SubmitTwoFactorCode(ctx context.Context, code string) (AuthState, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return a.State(), ErrOperationInProgress
	}
	defer a.inFlight.Store(false)

	a.mu.Lock()
	if a.state != StateAwaitingTwoFactor {
		state := a.state
		a.mu.Unlock()
		return state, ErrNoPendingChallenge
	}
	username := a.username
	identifier := a.challenge.Identifier
	a.mu.Unlock()

	resp, err := a.api.TwoFactorLogin(ctx, adapter.TwoFactorPayload{
		Username:            username,
		VerificationCode:    code,
		TwoFactorIdentifier: identifier,
		DeviceID:            a.sess.Device().DeviceID,
	})
	if err != nil {
		return a.State(), err
	}

	if resp.OK() && resp.LoggedInUser != nil {
		return a.finishLogin(*resp.LoggedInUser)
	}

	switch resp.ErrorType {
	case "sms_code_validation_code_invalid", "two_factor_code_expired":
		return a.rejectCode()
	}
	return a.fail("unrecognized two-factor response")
}

// SubmitChallengeCode implements [AuthService].
func (a *authService) SubmitChallengeCode(ctx context.Context, code string) (AuthState, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return a.State(), ErrOperationInProgress
	}
	defer a.inFlight.Store(false)

	a.mu.Lock()
	if a.state != StateAwaitingChallenge {
		state := a.state
		a.mu.Unlock()
		return state, ErrNoPendingChallenge
	}
	apiPath := a.challenge.Identifier
	a.mu.Unlock()

	resp, err := a.api.SubmitChallenge(ctx, apiPath, code)
	if err != nil {
		return a.State(), err
	}

	if resp.OK() && resp.LoggedInUser != nil {
		return a.finishLogin(*resp.LoggedInUser)
	}

	if resp.ErrorType == "challenge_wrong_code" {
		return a.rejectCode()
	}
	return a.fail("unrecognized challenge response")
}

// ResendCode implements [AuthService]. Only security challenges support
// server-side replay; a two-factor code is reissued by logging in again.
func (a *authService) ResendCode(ctx context.Context) error {
	a.mu.Lock()
	state := a.state
	apiPath := a.challenge.Identifier
	a.mu.Unlock()

	if state != StateAwaitingChallenge {
		return ErrNoPendingChallenge
	}
	return a.api.ReplayChallengeCode(ctx, apiPath)
}

// Logout implements [AuthService].
func (a *authService) Logout(ctx context.Context) error {
	if !a.sess.IsAuthenticated() {
		return ErrNotLoggedIn
	}

	serverErr := a.api.Logout(ctx)

	// local wipe happens regardless of the server outcome
	a.sess.Clear()
	if err := a.snapshots.Delete(); err != nil {
		a.logger.Err(err).Str("func", "*authService.Logout").Msg("error deleting session snapshot")
	}

	a.mu.Lock()
	a.state = StateUnauthenticated
	a.username = ""
	a.challenge = models.AuthChallenge{}
	a.codeAttempts = 0
	a.mu.Unlock()

	if serverErr != nil && !errors.Is(serverErr, adapter.ErrUnauthorized) {
		return fmt.Errorf("server logout: %w", serverErr)
	}

	a.logger.Info().Msg("logged out")
	return nil
}

func (a *authService) await(state AuthState, ch models.AuthChallenge) AuthState {
	a.mu.Lock()
	a.state = state
	a.challenge = ch
	a.codeAttempts = 0
	a.mu.Unlock()

	a.logger.Info().Str("kind", string(ch.Kind)).Str("delivery_hint", ch.DeliveryHint).Msg("verification step required")
	return state
}

func (a *authService) rejectCode() (AuthState, error) {
	a.mu.Lock()
	a.codeAttempts++
	exhausted := a.codeAttempts >= a.maxCodeAttempts
	attempt := a.codeAttempts
	a.mu.Unlock()

	if exhausted {
		return a.fail("verification code attempts exhausted")
	}

	a.logger.Warn().Int("attempt", attempt).Int("max", a.maxCodeAttempts).Msg("verification code rejected")
	return a.State(), ErrCodeRejected
}

func (a *authService) fail(reason string) (AuthState, error) {
	a.mu.Lock()
	a.state = StateFailed
	a.challenge = models.AuthChallenge{}
	a.mu.Unlock()

	a.logger.Warn().Str("reason", reason).Msg("authentication failed")
	return StateFailed, fmt.Errorf("%w: %s", ErrAuthFailed, reason)
}

func (a *authService) finishLogin(user models.User) (AuthState, error) {
	// the transport already rotated the bearer token into the session;
	// recording the user id completes the authenticated invariant
	view := a.sess.HeaderSnapshot()
	a.sess.SetAuthenticated(user.UserID, view.BearerToken)

	if err := a.snapshots.Save(a.sess); err != nil {
		// login itself succeeded, the session is just not durable
		a.logger.Err(err).Str("func", "*authService.finishLogin").Msg("error persisting session snapshot")
	}

	a.mu.Lock()
	a.state = StateAuthenticated
	a.challenge = models.AuthChallenge{}
	a.codeAttempts = 0
	a.mu.Unlock()

	a.logger.Info().Int64("user_id", user.UserID).Msg("authenticated")
	return StateAuthenticated, nil
}
