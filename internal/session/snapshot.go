package session

import (
	"encoding/json"
	"fmt"

	"github.com/ospolov/go-dm-client/models"
)

// snapshotVersion is the current persisted schema version. Bump it whenever
// the snapshot layout changes in a way old readers cannot handle.
const snapshotVersion = 1

// snapshot is the persisted form of a State. Only the per-profile mutable
// fields are included: the csrf token is recoverable from the cookie jar and
// static capability tables never belong in the blob.
type snapshot struct {
	SchemaVersion int                   `json:"schema_version"`
	Device        models.DeviceIdentity `json:"device"`
	Cookies       map[string]string     `json:"cookies"`
	BearerToken   string                `json:"bearer_token,omitempty"`
	UserID        int64                 `json:"user_id,omitempty"`
}

// Encode serializes the state into a versioned snapshot blob.
func (s *State) Encode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		SchemaVersion: snapshotVersion,
		Device:        s.device,
		Cookies:       s.cookies,
		BearerToken:   s.bearerToken,
		UserID:        s.userID,
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session snapshot: %w", err)
	}
	return payload, nil
}

// Decode restores a State from a snapshot blob previously produced by
// Encode. Returns ErrCorruptSnapshot (wrapped) when the blob cannot be
// parsed, carries an unknown schema version, or lacks the device identity.
func Decode(blob []byte) (*State, error) {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if snap.SchemaVersion != snapshotVersion {
		return nil, fmt.Errorf("%w: unknown schema version %d", ErrCorruptSnapshot, snap.SchemaVersion)
	}
	if snap.Device.DeviceID == "" || snap.Device.UserAgent == "" {
		return nil, fmt.Errorf("%w: missing device identity", ErrCorruptSnapshot)
	}

	state := New(snap.Device)
	state.MergeCookies(snap.Cookies)
	if snap.BearerToken != "" || snap.UserID != 0 {
		state.SetAuthenticated(snap.UserID, snap.BearerToken)
	}

	return state, nil
}
