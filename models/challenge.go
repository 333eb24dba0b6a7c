package models

// ChallengeKind discriminates the verification step the server demands
// before an authentication flow may continue.
type ChallengeKind string

const (
	// ChallengeTwoFactor means the account has two-factor auth enabled and
	// the server expects a one-time code.
	ChallengeTwoFactor ChallengeKind = "two_factor"

	// ChallengeSecurity means the server raised a checkpoint (suspicious
	// login, new device) and expects the code it delivered out of band.
	ChallengeSecurity ChallengeKind = "security_challenge"
)

// AuthChallenge carries the resumable context of a pending verification step.
// It is produced by a login attempt, consumed by the matching resolution call
// and never persisted.
type AuthChallenge struct {
	// Kind tells which resolution endpoint accepts the code.
	Kind ChallengeKind `json:"kind"`

	// Identifier is the opaque server token that resumes the flow
	// (two_factor_identifier or the checkpoint api_path).
	Identifier string `json:"identifier"`

	// DeliveryHint describes where the code was sent, e.g. an obfuscated
	// phone number. May be empty.
	DeliveryHint string `json:"delivery_hint,omitempty"`
}
