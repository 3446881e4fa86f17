package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenPrefix marks hub API tokens, mirroring the upstream hub's "hf_"
// convention so existing clients treat them the same way.
const TokenPrefix = "hf_"

// GenerateAPIToken returns a fresh API token secret. Only the hash is
// persisted; the secret is shown to the user once.
func GenerateAPIToken() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(raw), nil
}

// HashAPIToken returns the SHA-256 hex digest used as the token lookup key.
// A deterministic hash (unlike bcrypt) allows indexed lookup by secret
// while keeping the stored value non-reversible.
func HashAPIToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// LooksLikeAPIToken reports whether a bearer credential is plausibly an API
// token rather than a JWT. Used to pick the cheap resolution path first;
// both paths are still tried on mismatch.
func LooksLikeAPIToken(credential string) bool {
	return strings.HasPrefix(credential, TokenPrefix)
}
