package nonce

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

const entropyBytes = 32

// Issuer generates single-use confirmation nonces. Values are derived from a
// cryptographically random source and passed through a one-way digest, so a
// stored nonce reveals nothing about the randomness that produced it.
type Issuer struct {
	rand io.Reader
}

// Option configures the issuer.
type Option func(*Issuer)

// WithReader overrides the randomness source. Tests use this to force
// deterministic or failing reads.
func WithReader(r io.Reader) Option {
	return func(i *Issuer) {
		if r != nil {
			i.rand = r
		}
	}
}

// New creates a nonce issuer backed by crypto/rand.
func New(opts ...Option) *Issuer {
	issuer := &Issuer{rand: rand.Reader}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer
}

// Issue returns a fresh opaque nonce. Generation is pure: persisting the
// lease record under the returned key is the caller's responsibility.
func (i *Issuer) Issue() (string, error) {
	buf := make([]byte, entropyBytes)
	if _, err := io.ReadFull(i.rand, buf); err != nil {
		return "", fmt.Errorf("nonce: read entropy: %w", err)
	}
	digest := sha3.Sum256(buf)
	return hex.EncodeToString(digest[:]), nil
}
