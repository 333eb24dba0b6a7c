package service

import (
	"context"
	"errors"
	"time"

	"github.com/ospolov/go-dm-client/internal/adapter"
	"github.com/ospolov/go-dm-client/models"
)

// stubAPI is a hand-rolled [adapter.APIClient] whose behaviour is set per
// test through function fields. Unset endpoints answer with a hard error so a
// test never drifts into a call it did not expect.
type stubAPI struct {
	loginFn     func(ctx context.Context, payload adapter.LoginPayload) (models.LoginResponse, error)
	twoFactorFn func(ctx context.Context, payload adapter.TwoFactorPayload) (models.LoginResponse, error)
	challengeFn func(ctx context.Context, apiPath, code string) (models.LoginResponse, error)
	replayFn    func(ctx context.Context, apiPath string) error
	logoutFn    func(ctx context.Context) error
	currentFn   func(ctx context.Context) (models.User, error)
	lookupFn    func(ctx context.Context, username string) (models.User, error)
	inboxFn     func(ctx context.Context, cursor string) (models.InboxPage, error)
	threadFn    func(ctx context.Context, threadID, cursor string) (models.ThreadPage, error)
	broadcastFn func(ctx context.Context, payload adapter.BroadcastTextPayload) (models.SendResponse, error)
}

var errUnexpectedCall = errors.New("unexpected API call")

func (s *stubAPI) Login(ctx context.Context, payload adapter.LoginPayload) (models.LoginResponse, error) {
	if s.loginFn == nil {
		return models.LoginResponse{}, errUnexpectedCall
	}
	return s.loginFn(ctx, payload)
}

func (s *stubAPI) TwoFactorLogin(ctx context.Context, payload adapter.TwoFactorPayload) (models.LoginResponse, error) {
	if s.twoFactorFn == nil {
		return models.LoginResponse{}, errUnexpectedCall
	}
	return s.twoFactorFn(ctx, payload)
}

func (s *stubAPI) SubmitChallenge(ctx context.Context, apiPath, code string) (models.LoginResponse, error) {
	if s.challengeFn == nil {
		return models.LoginResponse{}, errUnexpectedCall
	}
	return s.challengeFn(ctx, apiPath, code)
}

func (s *stubAPI) ReplayChallengeCode(ctx context.Context, apiPath string) error {
	if s.replayFn == nil {
		return errUnexpectedCall
	}
	return s.replayFn(ctx, apiPath)
}

func (s *stubAPI) Logout(ctx context.Context) error {
	if s.logoutFn == nil {
		return errUnexpectedCall
	}
	return s.logoutFn(ctx)
}

func (s *stubAPI) CurrentUser(ctx context.Context) (models.User, error) {
	if s.currentFn == nil {
		return models.User{}, errUnexpectedCall
	}
	return s.currentFn(ctx)
}

func (s *stubAPI) LookupUser(ctx context.Context, username string) (models.User, error) {
	if s.lookupFn == nil {
		return models.User{}, errUnexpectedCall
	}
	return s.lookupFn(ctx, username)
}

func (s *stubAPI) Inbox(ctx context.Context, cursor string) (models.InboxPage, error) {
	if s.inboxFn == nil {
		return models.InboxPage{}, errUnexpectedCall
	}
	return s.inboxFn(ctx, cursor)
}

func (s *stubAPI) Thread(ctx context.Context, threadID, cursor string) (models.ThreadPage, error) {
	if s.threadFn == nil {
		return models.ThreadPage{}, errUnexpectedCall
	}
	return s.threadFn(ctx, threadID, cursor)
}

func (s *stubAPI) BroadcastText(ctx context.Context, payload adapter.BroadcastTextPayload) (models.SendResponse, error) {
	if s.broadcastFn == nil {
		return models.SendResponse{}, errUnexpectedCall
	}
	return s.broadcastFn(ctx, payload)
}

// stubSealer returns a fixed envelope so tests can assert the plaintext
// never reaches the wire payload.
type stubSealer struct{}

func (stubSealer) Seal(_ string, _ time.Time) (string, error) {
	return "#PWD_DM:10:0:c2VhbGVk", nil
}

var testDevice = models.DeviceIdentity{
	DeviceID:      "86d48448-4763-5166-b98e-14ef55126b30",
	PhoneID:       "6409d42f-531f-5ed4-8704-88b3c9db5cb6",
	AdvertisingID: "3eb66d68-9e9a-5ba2-81d5-176315aa5641",
	AndroidID:     "android-73dbac47417363ec",
	UserAgent:     "Instagram 275.0.0.27.98 Android",
}

func okLogin(userID int64) models.LoginResponse {
	return models.LoginResponse{
		APIStatus:    models.APIStatus{Status: "ok"},
		LoggedInUser: &models.User{UserID: userID, Username: "alice"},
	}
}
