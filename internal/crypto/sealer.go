package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/nacl/box"
)

const (
	// envelopeTag prefixes every sealed password so the server can route it
	// to the right decryption scheme.
	envelopeTag = "#PWD_DM"

	// envelopeVersion identifies the sealing construction in use.
	envelopeVersion = 10
)

// ErrInvalidPublicKey is returned when the configured server public key is
// not a 32-byte hex string.
var ErrInvalidPublicKey = errors.New("invalid server public key")

// SealedBoxSealer seals passwords with an anonymous NaCl box against the
// server's published Curve25519 key. Each call draws a fresh ephemeral key
// pair from the OS CSPRNG, so equal passwords produce distinct envelopes.
type SealedBoxSealer struct {
	publicKey [32]byte
}

// NewSealedBoxSealer parses the hex-encoded server public key and returns a
// ready sealer.
func NewSealedBoxSealer(publicKeyHex string) (*SealedBoxSealer, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidPublicKey, len(raw))
	}

	s := &SealedBoxSealer{}
	copy(s.publicKey[:], raw)
	return s, nil
}

// Seal implements [PasswordSealer]. The timestamp is sealed together with
// the password so the envelope header cannot be swapped onto an old
// ciphertext.
func (s *SealedBoxSealer) Seal(password string, timestamp time.Time) (string, error) {
	ts := timestamp.Unix()
	message := fmt.Sprintf("%d:%s", ts, password)

	sealed, err := box.SealAnonymous(nil, []byte(message), &s.publicKey, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("seal password: %w", err)
	}

	return fmt.Sprintf("%s:%d:%d:%s", envelopeTag, envelopeVersion, ts, base64.StdEncoding.EncodeToString(sealed)), nil
}
