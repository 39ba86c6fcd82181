package auth

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// StateCookieName is the name of the state cookie.
	StateCookieName = "reqpanel_oidc_state"
	// StateCookieMaxAge is how long the state cookie is valid (5 minutes).
	StateCookieMaxAge = 5 * 60
)

// StateStore manages state and nonce for OIDC CSRF protection.
type StateStore struct {
	sealer *sealer
	secure bool
	now    func() time.Time
}

// StateData holds the state and nonce for an OIDC request.
type StateData struct {
	State     string    `json:"state"`
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewStateStore creates a new state store with encryption.
func NewStateStore(key []byte, secure bool) (*StateStore, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	return &StateStore{sealer: s, secure: secure, now: time.Now}, nil
}

// Generate creates a new state/nonce pair and stores it in an encrypted cookie.
func (ss *StateStore) Generate(w http.ResponseWriter) (*StateData, error) {
	state, err := GenerateSecureString(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	nonce, err := GenerateSecureString(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	data := &StateData{
		State:     state,
		Nonce:     nonce,
		ExpiresAt: ss.now().Add(StateCookieMaxAge * time.Second),
	}

	encoded, err := ss.sealer.seal(data)
	if err != nil {
		return nil, err
	}
	setCookie(w, StateCookieName, encoded, StateCookieMaxAge, ss.secure)
	return data, nil
}

// Validate retrieves the state cookie and checks it against the state
// returned by the identity provider.
func (ss *StateStore) Validate(r *http.Request, state string) (*StateData, error) {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil {
		return nil, fmt.Errorf("state cookie not found: %w", err)
	}

	var data StateData
	if err := ss.sealer.open(cookie.Value, &data); err != nil {
		return nil, err
	}

	if ss.now().After(data.ExpiresAt) {
		return nil, fmt.Errorf("state expired")
	}

	if !ConstantTimeCompare(data.State, state) {
		return nil, fmt.Errorf("state mismatch")
	}

	return &data, nil
}

// Clear clears the state cookie.
func (ss *StateStore) Clear(w http.ResponseWriter) {
	setCookie(w, StateCookieName, "", -1, ss.secure)
}
