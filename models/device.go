package models

// DeviceIdentity is the set of stable pseudo-hardware identifiers presented
// with every API request. It is derived deterministically from a profile seed
// and never changes for the lifetime of that profile: servers correlate the
// device fields across requests, so regenerating them mid-session looks like
// a stolen token.
//
// A DeviceIdentity is created once by the device generator and owned by the
// session state afterwards; it is immutable by convention.
type DeviceIdentity struct {
	// DeviceID is the per-installation UUID sent in the X-IG-Device-ID header.
	DeviceID string `json:"device_id"`

	// PhoneID is the per-phone UUID used in login payloads.
	PhoneID string `json:"phone_id"`

	// AdvertisingID is the resettable advertising UUID.
	AdvertisingID string `json:"advertising_id"`

	// AndroidID is the "android-" prefixed 64-bit hardware identifier.
	AndroidID string `json:"android_id"`

	// UserAgent is the fully assembled mobile-app user agent string built
	// from the app version and the device profile.
	UserAgent string `json:"user_agent"`
}
