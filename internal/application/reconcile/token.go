package reconcile

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	defaultTokenTTL     = 30 * 24 * time.Hour
	defaultMaxDownloads = 3
)

// TokenIssuer generates download credentials for newly paid orders. Tokens
// are opaque random strings; the TTL and download ceiling come from policy
// configuration.
type TokenIssuer struct {
	ttl          time.Duration
	maxDownloads int
}

// NewTokenIssuer creates a TokenIssuer with the given policy. Zero values
// fall back to 30 days and 3 downloads.
func NewTokenIssuer(ttl time.Duration, maxDownloads int) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if maxDownloads <= 0 {
		maxDownloads = defaultMaxDownloads
	}
	return &TokenIssuer{ttl: ttl, maxDownloads: maxDownloads}
}

// Issue generates a fresh credential.
func (i *TokenIssuer) Issue() (token string, expiresAt time.Time, maxDownloads int, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", time.Time{}, 0, fmt.Errorf("failed to generate download token: %w", err)
	}
	return hex.EncodeToString(buf), time.Now().Add(i.ttl), i.maxDownloads, nil
}
