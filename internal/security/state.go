package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidState is returned for OAuth state values that were not issued
// by this server
var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner binds an OAuth round trip to the session that started it.
// The state is "<sessionID>.<hmac>", so no server-side storage is needed
// and any replica can verify it.
type StateSigner struct {
	secret []byte
}

// NewStateSigner creates a signer keyed by secret
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret)}
}

// Sign returns the state value for sessionID
func (s *StateSigner) Sign(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session ID is required")
	}
	return sessionID + "." + s.mac(sessionID), nil
}

// Verify returns the session ID a state was issued for
func (s *StateSigner) Verify(state string) (string, error) {
	sessionID, sig, ok := strings.Cut(state, ".")
	if !ok || sessionID == "" || sig == "" {
		return "", ErrInvalidState
	}
	if !hmac.Equal([]byte(s.mac(sessionID)), []byte(sig)) {
		return "", ErrInvalidState
	}
	return sessionID, nil
}

func (s *StateSigner) mac(sessionID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}
