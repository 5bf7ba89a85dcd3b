package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// SecureTokenBytes is the amount of entropy in a confirmation or reset token
	SecureTokenBytes = 32
	// SecureTokenTTL is how long a confirmation or reset token can be redeemed
	SecureTokenTTL = 10 * time.Minute
)

// SecureToken is a single use token. Only Hash is persisted, Plaintext
// goes out in the email link.
type SecureToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// SecureTokenGenerator creates confirmation and reset tokens
type SecureTokenGenerator struct {
	now Clock
	ttl time.Duration
}

// NewSecureTokenGenerator returns a generator using clock, or time.Now if nil
func NewSecureTokenGenerator(clock Clock) *SecureTokenGenerator {
	if clock == nil {
		clock = time.Now
	}
	return &SecureTokenGenerator{
		now: clock,
		ttl: SecureTokenTTL,
	}
}

// Generate returns a fresh token expiring SecureTokenTTL from now
func (g *SecureTokenGenerator) Generate() (SecureToken, error) {
	buf := make([]byte, SecureTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return SecureToken{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes")
	}

	plaintext := hex.EncodeToString(buf)

	return SecureToken{
		Plaintext: plaintext,
		Hash:      HashSecureToken(plaintext),
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}

// HashSecureToken returns the hex SHA-256 digest stored for a token
func HashSecureToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
