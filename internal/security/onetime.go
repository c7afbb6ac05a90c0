package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// NewOneTimeSecret generates the plaintext secret for a one-time token along
// with the digest that gets persisted. The plaintext leaves the process
// exactly once, inside a delivered link.
func NewOneTimeSecret() (string, []byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate one-time secret: %w", err)
	}

	secret := hex.EncodeToString(buf)
	return secret, HashOneTimeSecret(secret), nil
}

func HashOneTimeSecret(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// VerifyOneTimeSecret compares the supplied plaintext against a stored
// digest in constant time.
func VerifyOneTimeSecret(secret string, digest []byte) bool {
	if len(digest) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(HashOneTimeSecret(secret), digest) == 1
}
