package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospolov/go-dm-client/internal/adapter"
	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/session"
	"github.com/ospolov/go-dm-client/models"
)

func newTestAuth(t *testing.T, api adapter.APIClient) (AuthService, *session.State, string) {
	t.Helper()

	sess := session.New(testDevice)
	snapshotPath := filepath.Join(t.TempDir(), "session.json")
	snapshots := session.NewFileStore(snapshotPath)

	svc := NewAuthService(api, sess, snapshots, stubSealer{}, 3, logger.Nop())
	return svc, sess, snapshotPath
}

// ── Логин ──

func TestSubmitLogin_Success(t *testing.T) {
	var captured adapter.LoginPayload
	api := &stubAPI{
		loginFn: func(_ context.Context, payload adapter.LoginPayload) (models.LoginResponse, error) {
			captured = payload
			return okLogin(7), nil
		},
	}
	svc, sess, snapshotPath := newTestAuth(t, api)

	state, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")

	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, StateAuthenticated, svc.State())
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, int64(7), sess.UserID())

	// the payload carries the sealed envelope and the device identity,
	// never the plaintext password
	assert.Equal(t, "#PWD_DM:10:0:c2VhbGVk", captured.SealedPassword)
	assert.NotContains(t, captured.SealedPassword, "s3cret")
	assert.Equal(t, testDevice.DeviceID, captured.DeviceID)
	assert.Equal(t, testDevice.PhoneID, captured.PhoneID)
	assert.Equal(t, 1, captured.LoginAttemptCount)

	// успешный логин сохраняет снапшот на диск
	_, statErr := os.Stat(snapshotPath)
	assert.NoError(t, statErr)
}

func TestSubmitLogin_BadPasswordFailsTerminally(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return models.LoginResponse{
				APIStatus: models.APIStatus{Status: "fail", ErrorType: "bad_password"},
			}, nil
		},
	}
	svc, sess, _ := newTestAuth(t, api)

	state, err := svc.SubmitLogin(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, StateFailed, state)
	assert.False(t, sess.IsAuthenticated())
}

func TestSubmitLogin_RestartsAfterFailed(t *testing.T) {
	attempts := 0
	api := &stubAPI{
		loginFn: func(_ context.Context, payload adapter.LoginPayload) (models.LoginResponse, error) {
			attempts = payload.LoginAttemptCount
			if payload.LoginAttemptCount == 1 {
				return models.LoginResponse{APIStatus: models.APIStatus{Status: "fail", ErrorType: "bad_password"}}, nil
			}
			return okLogin(7), nil
		},
	}
	svc, _, _ := newTestAuth(t, api)

	_, err := svc.SubmitLogin(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrAuthFailed)

	state, err := svc.SubmitLogin(context.Background(), "alice", "right")

	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, 2, attempts, "attempt counter should survive the restart")
}

func TestSubmitLogin_WhileLoggedIn(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return okLogin(7), nil
		},
	}
	svc, _, _ := newTestAuth(t, api)

	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	_, err = svc.SubmitLogin(context.Background(), "alice", "s3cret")
	assert.ErrorIs(t, err, ErrAlreadyLoggedIn)
}

func TestSubmitLogin_TransportErrorKeepsStateRetriable(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return models.LoginResponse{}, adapter.ErrTransient
		},
	}
	svc, _, _ := newTestAuth(t, api)

	state, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")

	assert.ErrorIs(t, err, adapter.ErrTransient)
	assert.NotErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestSubmitLogin_Validation(t *testing.T) {
	svc, _, _ := newTestAuth(t, &stubAPI{})

	_, err := svc.SubmitLogin(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, ErrValidationNoUsername)

	_, err = svc.SubmitLogin(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrValidationNoPassword)
}

// ── Двухфакторная аутентификация ──

func twoFactorLoginResponse() models.LoginResponse {
	return models.LoginResponse{
		APIStatus:         models.APIStatus{Status: "fail"},
		TwoFactorRequired: true,
		TwoFactorInfo: &models.TwoFactorInfo{
			TwoFactorIdentifier:   "2fa-token-123",
			ObfuscatedPhoneNumber: "+7 *** 42",
		},
	}
}

func TestSubmitLogin_TwoFactorPrompt(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return twoFactorLoginResponse(), nil
		},
	}
	svc, sess, _ := newTestAuth(t, api)

	state, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")

	require.NoError(t, err)
	assert.Equal(t, StateAwaitingTwoFactor, state)
	assert.False(t, sess.IsAuthenticated())

	challenge, waiting := svc.PendingChallenge()
	require.True(t, waiting)
	assert.Equal(t, models.ChallengeTwoFactor, challenge.Kind)
	assert.Equal(t, "2fa-token-123", challenge.Identifier)
	assert.Equal(t, "+7 *** 42", challenge.DeliveryHint)
}

func TestSubmitTwoFactorCode_Success(t *testing.T) {
	var captured adapter.TwoFactorPayload
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return twoFactorLoginResponse(), nil
		},
		twoFactorFn: func(_ context.Context, payload adapter.TwoFactorPayload) (models.LoginResponse, error) {
			captured = payload
			return okLogin(7), nil
		},
	}
	svc, sess, _ := newTestAuth(t, api)

	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	state, err := svc.SubmitTwoFactorCode(context.Background(), "123456")

	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "123456", captured.VerificationCode)
	assert.Equal(t, "2fa-token-123", captured.TwoFactorIdentifier)
	assert.Equal(t, "alice", captured.Username)
}

func TestSubmitTwoFactorCode_WrongCodeBudget(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return twoFactorLoginResponse(), nil
		},
		twoFactorFn: func(_ context.Context, _ adapter.TwoFactorPayload) (models.LoginResponse, error) {
			return models.LoginResponse{
				APIStatus: models.APIStatus{Status: "fail", ErrorType: "sms_code_validation_code_invalid"},
			}, nil
		},
	}
	svc, _, _ := newTestAuth(t, api)

	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	// первые две ошибки оставляют машину в ожидании
	for i := 0; i < 2; i++ {
		state, err := svc.SubmitTwoFactorCode(context.Background(), "000000")
		assert.ErrorIs(t, err, ErrCodeRejected)
		assert.Equal(t, StateAwaitingTwoFactor, state)
	}

	// третья исчерпывает бюджет
	state, err := svc.SubmitTwoFactorCode(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, StateFailed, state)

	_, err = svc.SubmitTwoFactorCode(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrNoPendingChallenge)
}

func TestSubmitTwoFactorCode_NoPendingPrompt(t *testing.T) {
	svc, _, _ := newTestAuth(t, &stubAPI{})

	_, err := svc.SubmitTwoFactorCode(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrNoPendingChallenge)
}

// ── Чекпоинт ──

func TestSubmitLogin_CheckpointPrompt(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return models.LoginResponse{}, &adapter.ChallengeRequiredError{
				Challenge: models.AuthChallenge{
					Kind:       models.ChallengeSecurity,
					Identifier: "/challenge/7/abcdef/",
				},
			}
		},
	}
	svc, _, _ := newTestAuth(t, api)

	state, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")

	require.NoError(t, err, "checkpoint is a state transition, not a failure")
	assert.Equal(t, StateAwaitingChallenge, state)

	challenge, waiting := svc.PendingChallenge()
	require.True(t, waiting)
	assert.Equal(t, models.ChallengeSecurity, challenge.Kind)
	assert.Equal(t, "/challenge/7/abcdef/", challenge.Identifier)
}

func TestSubmitChallengeCode_Success(t *testing.T) {
	var gotPath, gotCode string
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return models.LoginResponse{}, &adapter.ChallengeRequiredError{
				Challenge: models.AuthChallenge{Kind: models.ChallengeSecurity, Identifier: "/challenge/7/abcdef/"},
			}
		},
		challengeFn: func(_ context.Context, apiPath, code string) (models.LoginResponse, error) {
			gotPath, gotCode = apiPath, code
			return okLogin(7), nil
		},
	}
	svc, sess, _ := newTestAuth(t, api)

	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	state, err := svc.SubmitChallengeCode(context.Background(), "424242")

	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "/challenge/7/abcdef/", gotPath)
	assert.Equal(t, "424242", gotCode)
}

func TestResendCode(t *testing.T) {
	var replayed string
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return models.LoginResponse{}, &adapter.ChallengeRequiredError{
				Challenge: models.AuthChallenge{Kind: models.ChallengeSecurity, Identifier: "/challenge/7/abcdef/"},
			}
		},
		replayFn: func(_ context.Context, apiPath string) error {
			replayed = apiPath
			return nil
		},
	}
	svc, _, _ := newTestAuth(t, api)

	require.ErrorIs(t, svc.ResendCode(context.Background()), ErrNoPendingChallenge)

	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.ResendCode(context.Background()))
	assert.Equal(t, "/challenge/7/abcdef/", replayed)
}

// ── Реентерабельность ──

func TestSubmitLogin_ConcurrentCallRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			close(started)
			<-release
			return okLogin(7), nil
		},
	}
	svc, _, _ := newTestAuth(t, api)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
		done <- err
	}()

	<-started
	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	assert.ErrorIs(t, err, ErrOperationInProgress)

	close(release)
	require.NoError(t, <-done)
}

// ── Выход ──

func TestLogout(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return okLogin(7), nil
		},
		logoutFn: func(_ context.Context) error { return nil },
	}
	svc, sess, snapshotPath := newTestAuth(t, api)

	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background()))

	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, StateUnauthenticated, svc.State())
	_, statErr := os.Stat(snapshotPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "snapshot must be deleted on logout")
}

func TestLogout_NotLoggedIn(t *testing.T) {
	svc, _, _ := newTestAuth(t, &stubAPI{})

	assert.ErrorIs(t, svc.Logout(context.Background()), ErrNotLoggedIn)
}

func TestLogout_ServerAlreadyInvalidatedSession(t *testing.T) {
	api := &stubAPI{
		loginFn: func(_ context.Context, _ adapter.LoginPayload) (models.LoginResponse, error) {
			return okLogin(7), nil
		},
		logoutFn: func(_ context.Context) error { return adapter.ErrUnauthorized },
	}
	svc, sess, _ := newTestAuth(t, api)

	_, err := svc.SubmitLogin(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	// сервер уже забыл сессию — локальный выход всё равно успешен
	require.NoError(t, svc.Logout(context.Background()))
	assert.False(t, sess.IsAuthenticated())
}

func TestNewAuthService_RestoredSessionStartsAuthenticated(t *testing.T) {
	sess := session.New(testDevice)
	sess.SetAuthenticated(7, "Bearer IGT:2:restored")
	snapshots := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	svc := NewAuthService(&stubAPI{}, sess, snapshots, stubSealer{}, 3, logger.Nop())

	assert.Equal(t, StateAuthenticated, svc.State())
}
