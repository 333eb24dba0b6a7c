// Package device derives the stable pseudo-hardware identity presented with
// every API request.
//
// The derivation is a pure function of the profile seed: the same seed always
// regenerates the same identifiers. UUID fields are name-based (RFC 4122
// version 5) under a fixed application namespace; the android id comes from
// an HMAC of the seed. No entropy source is consulted, so a profile can be
// rebuilt from its seed alone.
package device

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ospolov/go-dm-client/models"
)

// ErrInvalidSeed is returned when the profile seed is empty or blank.
var ErrInvalidSeed = errors.New("invalid device seed")

// identityNamespace is the fixed UUID namespace for all name-based
// identifier derivation. Changing it would rotate every generated device
// identity, so it is frozen.
var identityNamespace = uuid.MustParse("5d3b84f2-0f24-4d9a-9f86-6a2e3a1c9b07")

// Per-field name prefixes keep the derived UUIDs independent of each other.
const (
	saltDeviceID      = "device-id"
	saltPhoneID       = "phone-id"
	saltAdvertisingID = "advertising-id"
	saltAndroidID     = "android-id"
)

// Device profile constants baked into the user agent. They describe the
// emulated handset and app build and are part of the fingerprint the server
// expects to stay consistent with the X-IG-* headers.
const (
	appVersion     = "275.0.0.27.98"
	appVersionCode = "458229237"
	deviceProfile  = "33/13; 420dpi; 1080x2148; Google/google; Pixel 7; panther; panther; en_US"
)

// Generate derives a DeviceIdentity from seed. It is deterministic: equal
// seeds yield identical identities, distinct seeds diverge. Returns
// ErrInvalidSeed if seed is empty or whitespace-only.
func Generate(seed string) (models.DeviceIdentity, error) {
	if strings.TrimSpace(seed) == "" {
		return models.DeviceIdentity{}, ErrInvalidSeed
	}

	identity := models.DeviceIdentity{
		DeviceID:      deriveUUID(saltDeviceID, seed),
		PhoneID:       deriveUUID(saltPhoneID, seed),
		AdvertisingID: deriveUUID(saltAdvertisingID, seed),
		AndroidID:     deriveAndroidID(seed),
	}
	identity.UserAgent = buildUserAgent()

	return identity, nil
}

// deriveUUID produces a name-based UUID for one identity field. The field
// salt is part of the name so that the per-field UUIDs are unlinkable.
func deriveUUID(fieldSalt, seed string) string {
	return uuid.NewSHA1(identityNamespace, []byte(fieldSalt+":"+seed)).String()
}

// deriveAndroidID produces the "android-" prefixed 64-bit id from an
// HMAC-SHA256 of the seed keyed with the field salt.
func deriveAndroidID(seed string) string {
	mac := hmac.New(sha256.New, []byte(saltAndroidID))
	mac.Write([]byte(seed))
	digest := mac.Sum(nil)

	return "android-" + hex.EncodeToString(digest[:8])
}

func buildUserAgent() string {
	return fmt.Sprintf("Instagram %s Android (%s; %s)", appVersion, deviceProfile, appVersionCode)
}
