package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingNonce = errors.New("missing nonce")
	ErrInvalidNonce = errors.New("invalid nonce")
)

// DefaultNonceLifetime is the maximum age of a nonce. A nonce is accepted
// during the tick it was issued in and the one after it.
const DefaultNonceLifetime = 24 * time.Hour

// NonceManager issues and verifies per-action, per-session anti-forgery tokens.
type NonceManager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewNonceManager creates a nonce manager. lifetime <= 0 selects DefaultNonceLifetime.
func NewNonceManager(secret string, lifetime time.Duration) (*NonceManager, error) {
	if secret == "" {
		return nil, errors.New("nonce secret is required")
	}
	if lifetime <= 0 {
		lifetime = DefaultNonceLifetime
	}
	return &NonceManager{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// tick returns the current half-lifetime window number, rounded up.
func (m *NonceManager) tick() int64 {
	half := int64(m.lifetime / 2 / time.Second)
	if half <= 0 {
		half = 1
	}
	now := m.now().Unix()
	return (now + half - 1) / half
}

func (m *NonceManager) hash(tick int64, action string, user *UserContext) string {
	mac := hmac.New(sha256.New, m.secret)
	fmt.Fprintf(mac, "%d|%s|%s|%s", tick, action, user.UserID, user.SessionID)
	sum := hex.EncodeToString(mac.Sum(nil))
	return sum[len(sum)-12 : len(sum)-2]
}

// Create issues a nonce for action bound to the user's session.
func (m *NonceManager) Create(action string, user *UserContext) string {
	return m.hash(m.tick(), action, user)
}

// Verify checks nonce against action and the user's session. It returns 1 when
// the nonce was issued in the current tick, 2 when issued in the previous one.
func (m *NonceManager) Verify(nonce, action string, user *UserContext) (int, error) {
	if nonce == "" {
		return 0, ErrMissingNonce
	}
	if user == nil {
		return 0, ErrInvalidNonce
	}

	tick := m.tick()
	if hmac.Equal([]byte(nonce), []byte(m.hash(tick, action, user))) {
		return 1, nil
	}
	if hmac.Equal([]byte(nonce), []byte(m.hash(tick-1, action, user))) {
		return 2, nil
	}
	return 0, ErrInvalidNonce
}
