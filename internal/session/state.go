// Package session holds the mutable authentication state of one logical
// user profile: device identity, cookies, bearer token and csrf token.
//
// A single State is shared by the transport client and the auth flow. All
// mutation goes through the State methods behind a RWMutex; readers take an
// immutable HeaderView at call start, so a token rotated mid-flight never
// corrupts an in-flight request.
package session

import (
	"sync"

	"github.com/ospolov/go-dm-client/models"
)

// csrfCookieName is the cookie the server rotates the csrf token through.
const csrfCookieName = "csrftoken"

// State is the authoritative session state for one profile. The zero value
// is not usable; construct with New or Decode.
type State struct {
	mu sync.RWMutex

	device      models.DeviceIdentity
	cookies     map[string]string
	bearerToken string
	userID      int64
	csrfToken   string
}

// New creates an unauthenticated State owning the given device identity.
func New(device models.DeviceIdentity) *State {
	return &State{
		device:  device,
		cookies: make(map[string]string),
	}
}

// Device returns the immutable device identity of this session.
func (s *State) Device() models.DeviceIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// IsAuthenticated reports whether the session holds a usable credential set:
// a bearer token or session cookie AND a user id.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hasCredential := s.bearerToken != "" || s.cookies["sessionid"] != ""
	return hasCredential && s.userID != 0
}

// UserID returns the authenticated user id, or 0 when logged out.
func (s *State) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// SetAuthenticated records a successful login in one atomic write, keeping
// the bearer token and user id consistent with each other.
func (s *State) SetAuthenticated(userID int64, bearerToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.bearerToken = bearerToken
}

// RotateBearer replaces the bearer token after the server reissues it.
// The user id is untouched: rotation happens inside one authenticated
// session, so the cookie/bearer/user invariant is preserved.
func (s *State) RotateBearer(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bearerToken = token
}

// MergeCookies upserts the given cookies into the jar. A rotated csrftoken
// cookie also refreshes the cached csrf token.
func (s *State) MergeCookies(cookies map[string]string) {
	if len(cookies) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, value := range cookies {
		s.cookies[name] = value
		if name == csrfCookieName {
			s.csrfToken = value
		}
	}
}

// Clear wipes all mutable auth fields on logout. The device identity is kept:
// the profile keeps presenting the same fingerprint on the next login.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = make(map[string]string)
	s.bearerToken = ""
	s.userID = 0
	s.csrfToken = ""
}

// HeaderView is an immutable read of the credential fields the transport
// layer needs to build request headers. It is safe to share across
// goroutines and stays valid even if the session rotates afterwards.
type HeaderView struct {
	Device      models.DeviceIdentity
	BearerToken string
	CSRFToken   string
	Cookies     map[string]string
}

// HeaderSnapshot returns a consistent HeaderView of the current state. The
// cookie map is copied so later rotation cannot race with the caller.
func (s *State) HeaderSnapshot() HeaderView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cookies := make(map[string]string, len(s.cookies))
	for name, value := range s.cookies {
		cookies[name] = value
	}

	return HeaderView{
		Device:      s.device,
		BearerToken: s.bearerToken,
		CSRFToken:   s.csrfToken,
		Cookies:     cookies,
	}
}
