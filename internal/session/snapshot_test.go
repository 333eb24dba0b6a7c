package session

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospolov/go-dm-client/internal/device"
)

func authenticatedState(t *testing.T) *State {
	t.Helper()
	identity, err := device.Generate("alice")
	require.NoError(t, err)

	s := New(identity)
	s.MergeCookies(map[string]string{"sessionid": "12345:abc:1", "csrftoken": "csrf-1", "mid": "XYZ"})
	s.SetAuthenticated(12345, "Bearer IGT:2:abcdef")
	return s
}

func TestSnapshot_RoundTrip(t *testing.T) {
	original := authenticatedState(t)

	blob, err := original.Encode()
	require.NoError(t, err)

	restored, err := Decode(blob)
	require.NoError(t, err)

	assert.Equal(t, original.Device(), restored.Device())
	assert.Equal(t, original.UserID(), restored.UserID())
	assert.Equal(t, original.IsAuthenticated(), restored.IsAuthenticated())
	assert.Equal(t, original.HeaderSnapshot(), restored.HeaderSnapshot())
}

func TestSnapshot_RoundTripIdempotent(t *testing.T) {
	original := authenticatedState(t)

	first, err := original.Encode()
	require.NoError(t, err)

	restored, err := Decode(first)
	require.NoError(t, err)

	second, err := restored.Encode()
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestSnapshot_CSRFRestoredFromCookies(t *testing.T) {
	blob, err := authenticatedState(t).Encode()
	require.NoError(t, err)

	// csrf is not a persisted field of its own
	var raw map[string]any
	require.NoError(t, json.Unmarshal(blob, &raw))
	_, hasCSRF := raw["csrf_token"]
	assert.False(t, hasCSRF)

	restored, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, "csrf-1", restored.HeaderSnapshot().CSRFToken)
}

func TestDecode_UnknownSchemaVersion(t *testing.T) {
	blob, err := authenticatedState(t).Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(blob, &raw))
	raw["schema_version"] = 99
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Decode(tampered)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestDecode_MissingDevice(t *testing.T) {
	_, err := Decode([]byte(`{"schema_version":1,"cookies":{}}`))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not json at all"))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestFileStore_SaveLoadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles", "alice.json")
	store := NewFileStore(path)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	original := authenticatedState(t)
	require.NoError(t, store.Save(original))

	restored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, original.UserID(), restored.UserID())
	assert.True(t, restored.IsAuthenticated())

	require.NoError(t, store.Delete())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	// deleting twice is fine
	require.NoError(t, store.Delete())
}
