package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/ospolov/go-dm-client/internal/config"
	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/session"
	"github.com/ospolov/go-dm-client/internal/utils"
	"github.com/ospolov/go-dm-client/models"
)

// igSetAuthorizationHeader is the response header the server rotates the
// bearer token through.
const igSetAuthorizationHeader = "Ig-Set-Authorization"

type httpAPIClient struct {
	client  *utils.HTTPClient
	session *session.State

	appID        string
	capabilities string

	retryAttempts  uint64
	retryBaseDelay time.Duration

	logger *logger.Logger
}

// NewHTTPAPIClient constructs the HTTP implementation of [APIClient] bound
// to the given session state. It normalises and validates the base URL and
// configures the underlying HTTP client with the request timeout.
//
// Returns an error if adapterCfg.BaseURL is empty or cannot be parsed as a
// valid URL.
func NewHTTPAPIClient(adapterCfg config.Adapter, appCfg config.App, sess *session.State, log *logger.Logger) (APIClient, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter base url: %w", err)
	}

	if adapterCfg.RequestTimeout <= 0 {
		adapterCfg.RequestTimeout = 15 * time.Second
	}
	if adapterCfg.RetryBaseDelay <= 0 {
		adapterCfg.RetryBaseDelay = 500 * time.Millisecond
	}

	client := utils.NewHTTPClient()
	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	return &httpAPIClient{
		client:         client,
		session:        sess,
		appID:          appCfg.ID,
		capabilities:   appCfg.Capabilities,
		retryAttempts:  uint64(adapterCfg.RetryAttempts),
		retryBaseDelay: adapterCfg.RetryBaseDelay,
		logger:         log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// newRequest builds a request carrying the full device/session header set.
// The header values come from one consistent HeaderSnapshot taken here, so a
// token rotated mid-flight never mixes into this request.
func (h *httpAPIClient) newRequest(ctx context.Context) *resty.Request {
	view := h.session.HeaderSnapshot()

	req := h.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", view.Device.UserAgent).
		SetHeader("X-IG-App-ID", h.appID).
		SetHeader("X-IG-Capabilities", h.capabilities).
		SetHeader("X-IG-Device-ID", view.Device.DeviceID).
		SetHeader("X-IG-Android-ID", view.Device.AndroidID)

	if view.CSRFToken != "" {
		req.SetHeader("X-CSRFToken", view.CSRFToken)
	}
	if view.BearerToken != "" {
		req.SetHeader("Authorization", view.BearerToken)
	}
	for name, value := range view.Cookies {
		req.SetCookie(&http.Cookie{Name: name, Value: value})
	}

	return req
}

// execute runs send with bounded exponential backoff on network-level
// failures. HTTP responses, whatever their status, are never retried here:
// status classification is the caller's job.
func (h *httpAPIClient) execute(ctx context.Context, send func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	backoff := retry.WithMaxRetries(h.retryAttempts, retry.NewExponential(h.retryBaseDelay))

	var resp *resty.Response
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, sendErr := send(ctx)
		if sendErr != nil {
			h.logger.Debug().Err(sendErr).Msg("transient request failure, will retry")
			return retry.RetryableError(sendErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	return resp, nil
}

// applyRotation merges rotated cookies and a reissued bearer token into the
// session. Called only after a response classified as success; error and
// timeout paths leave the session untouched.
func (h *httpAPIClient) applyRotation(resp *resty.Response) {
	cookies := make(map[string]string)
	for _, c := range resp.Cookies() {
		if c.Value != "" {
			cookies[c.Name] = c.Value
		}
	}
	h.session.MergeCookies(cookies)

	if auth := resp.Header().Get(igSetAuthorizationHeader); auth != "" && !strings.EqualFold(auth, "Bearer") {
		h.session.RotateBearer(auth)
	}
}

// signBody wraps the JSON payload in the signed_body form value. Current app
// builds send the literal "SIGNATURE" marker in place of an HMAC digest and
// the server validates the envelope shape only; a real signer slots in here
// if a deployment needs one.
func signBody(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal signed body: %w", err)
	}
	return "SIGNATURE." + string(raw), nil
}

func (h *httpAPIClient) get(ctx context.Context, path string, pathParams, queryParams map[string]string, out any, requiresAuth bool) error {
	if requiresAuth && !h.session.IsAuthenticated() {
		return ErrUnauthorized
	}

	resp, err := h.execute(ctx, func(ctx context.Context) (*resty.Response, error) {
		return h.newRequest(ctx).
			SetPathParams(pathParams).
			SetQueryParams(queryParams).
			Get(path)
	})
	if err != nil {
		return err
	}
	if err = mapAPIError(resp); err != nil {
		return err
	}
	h.applyRotation(resp)

	if out != nil {
		if err = json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (h *httpAPIClient) postForm(ctx context.Context, path string, form map[string]string, requiresAuth bool) (*resty.Response, error) {
	if requiresAuth && !h.session.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	return h.execute(ctx, func(ctx context.Context) (*resty.Response, error) {
		return h.newRequest(ctx).
			SetFormData(form).
			Post(path)
	})
}

func (h *httpAPIClient) postSigned(ctx context.Context, path string, payload any, requiresAuth bool) (*resty.Response, error) {
	body, err := signBody(payload)
	if err != nil {
		return nil, err
	}

	return h.postForm(ctx, path, map[string]string{"signed_body": body}, requiresAuth)
}

// recognizedAuthErrorTypes are login-flow outcomes the auth flow interprets
// itself; the transport hands the decoded response through instead of
// converting them to errors.
var recognizedAuthErrorTypes = map[string]struct{}{
	"bad_password":                     {},
	"invalid_user":                     {},
	"account_disabled":                 {},
	"sms_code_validation_code_invalid": {},
	"two_factor_code_expired":          {},
	"challenge_wrong_code":             {},
}

// authFlowOutcome reports whether the decoded login response represents an
// outcome the auth state machine transitions on, as opposed to a transport
// failure.
func authFlowOutcome(resp *resty.Response, out *models.LoginResponse) bool {
	if resp.StatusCode() < http.StatusInternalServerError {
		if out.OK() && out.LoggedInUser != nil {
			return true
		}
		if out.TwoFactorRequired {
			return true
		}
		if _, ok := recognizedAuthErrorTypes[out.ErrorType]; ok {
			return true
		}
	}
	return false
}

// doLoginShaped posts a login-family request and applies the shared
// response semantics of Login, TwoFactorLogin and SubmitChallenge.
func (h *httpAPIClient) doLoginShaped(ctx context.Context, path string, payload any) (models.LoginResponse, error) {
	var out models.LoginResponse

	resp, err := h.postSigned(ctx, path, payload, false)
	if err != nil {
		return out, err
	}

	_ = json.Unmarshal(resp.Body(), &out)
	if authFlowOutcome(resp, &out) {
		if out.OK() && out.LoggedInUser != nil {
			h.applyRotation(resp)
		}
		return out, nil
	}

	return out, mapAPIError(resp)
}

// Login implements [APIClient].
func (h *httpAPIClient) Login(ctx context.Context, payload LoginPayload) (models.LoginResponse, error) {
	return h.doLoginShaped(ctx, pathLogin, payload)
}

// TwoFactorLogin implements [APIClient].
func (h *httpAPIClient) TwoFactorLogin(ctx context.Context, payload TwoFactorPayload) (models.LoginResponse, error) {
	return h.doLoginShaped(ctx, pathTwoFactor, payload)
}

// SubmitChallenge implements [APIClient]. apiPath is the checkpoint path
// from the AuthChallenge identifier, already relative to the base URL.
func (h *httpAPIClient) SubmitChallenge(ctx context.Context, apiPath, code string) (models.LoginResponse, error) {
	return h.doLoginShaped(ctx, apiPath, map[string]string{"security_code": code})
}

// ReplayChallengeCode implements [APIClient]. Posting the delivery choice
// without a code makes the server reissue one.
func (h *httpAPIClient) ReplayChallengeCode(ctx context.Context, apiPath string) error {
	resp, err := h.postForm(ctx, apiPath, map[string]string{"choice": "0"}, false)
	if err != nil {
		return err
	}
	return mapAPIError(resp)
}

// Logout implements [APIClient]. The server-side invalidation requires a
// live session; clearing local state is the caller's follow-up.
func (h *httpAPIClient) Logout(ctx context.Context) error {
	resp, err := h.postForm(ctx, pathLogout, map[string]string{"one_tap_app_login": "0"}, true)
	if err != nil {
		return err
	}
	return mapAPIError(resp)
}

// CurrentUser implements [APIClient].
func (h *httpAPIClient) CurrentUser(ctx context.Context) (models.User, error) {
	var out models.CurrentUserResponse
	if err := h.get(ctx, pathCurrentUser, nil, nil, &out, true); err != nil {
		return models.User{}, err
	}
	if out.User == nil {
		return models.User{}, fmt.Errorf("malformed current user response")
	}
	return *out.User, nil
}

// LookupUser implements [APIClient].
func (h *httpAPIClient) LookupUser(ctx context.Context, username string) (models.User, error) {
	var out models.UserLookupResponse
	err := h.get(ctx, pathUserInfo, map[string]string{"username": username}, nil, &out, true)
	if err != nil {
		var serverErr *ServerError
		if errors.As(err, &serverErr) && serverErr.Status == http.StatusNotFound {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return models.User{}, err
	}
	if out.User == nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return *out.User, nil
}

// Inbox implements [APIClient].
func (h *httpAPIClient) Inbox(ctx context.Context, cursor string) (models.InboxPage, error) {
	query := map[string]string{"visual_message_return_type": "unseen"}
	if cursor != "" {
		query["cursor"] = cursor
	}

	var out models.InboxPage
	if err := h.get(ctx, pathInbox, nil, query, &out, true); err != nil {
		return models.InboxPage{}, err
	}
	return out, nil
}

// Thread implements [APIClient].
func (h *httpAPIClient) Thread(ctx context.Context, threadID, cursor string) (models.ThreadPage, error) {
	query := map[string]string{}
	if cursor != "" {
		query["cursor"] = cursor
	}

	var out models.ThreadPage
	err := h.get(ctx, pathThread, map[string]string{"thread_id": threadID}, query, &out, true)
	if err != nil {
		return models.ThreadPage{}, err
	}
	return out, nil
}

// BroadcastText implements [APIClient].
func (h *httpAPIClient) BroadcastText(ctx context.Context, payload BroadcastTextPayload) (models.SendResponse, error) {
	form := map[string]string{
		"action":         "send_item",
		"text":           payload.Text,
		"client_context": payload.ClientContext,
	}
	if payload.ThreadID != "" {
		form["thread_ids"] = fmt.Sprintf("[%s]", payload.ThreadID)
	} else {
		form["recipient_users"] = fmt.Sprintf("[[%d]]", payload.RecipientUserID)
	}

	resp, err := h.postForm(ctx, pathBroadcastText, form, true)
	if err != nil {
		return models.SendResponse{}, err
	}
	if err = mapAPIError(resp); err != nil {
		return models.SendResponse{}, err
	}
	h.applyRotation(resp)

	var out models.SendResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.SendResponse{}, fmt.Errorf("decode send response: %w", err)
	}
	return out, nil
}
