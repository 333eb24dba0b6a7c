// Package crypto implements the password envelope used by the login flow.
//
// The plaintext password is never transmitted or logged: the auth flow hands
// it to a [PasswordSealer], which returns a versioned envelope of the form
//
//	#PWD_DM:<version>:<timestamp>:<base64 ciphertext>
//
// The exact asymmetric construction is a server-dictated detail, so sealing
// is an interface and the shipped [SealedBoxSealer] is replaceable.
package crypto

import "time"

// PasswordSealer produces the transmit-safe envelope for a plaintext
// password. Implementations must not retain the plaintext.
type PasswordSealer interface {
	// Seal encrypts password against the server public key and returns the
	// full versioned envelope string. The timestamp is embedded in the
	// envelope so the server can reject stale payloads.
	Seal(password string, timestamp time.Time) (string, error)
}
