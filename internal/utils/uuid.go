package utils

import "github.com/google/uuid"

// UUIDGenerator mints the idempotency tokens attached to send operations
// (one token per logical send, reused across retries of that send).
// Defined as a struct so tests can substitute a deterministic generator.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a time-ordered UUIDv7 string, falling back to a random
// UUIDv4 if the monotonic source fails.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
