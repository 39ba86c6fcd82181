package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"
)

const (
	// LoginCookieName is the name of the operator login cookie.
	LoginCookieName = "reqpanel_login"
)

// Login is the signed-in operator, stored in an encrypted cookie.
type Login struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Operator returns the identity recorded against changes: the email when
// known, the subject otherwise.
func (l *Login) Operator() string {
	if l.Email != "" {
		return l.Email
	}
	return l.Subject
}

// DisplayName returns a human-friendly name for the operator.
func (l *Login) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Operator()
}

// SessionManager handles encrypted login cookies.
type SessionManager struct {
	sealer   *sealer
	duration time.Duration
	secure   bool // Use Secure flag on cookies (for HTTPS)
	now      func() time.Time
}

// NewSessionManager creates a new session manager with the given encryption key.
// The key must be exactly 32 bytes for AES-256.
func NewSessionManager(key []byte, duration time.Duration, secure bool) (*SessionManager, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	return &SessionManager{
		sealer:   s,
		duration: duration,
		secure:   secure,
		now:      time.Now,
	}, nil
}

// Create stores the login in an encrypted cookie.
func (sm *SessionManager) Create(w http.ResponseWriter, login *Login) error {
	now := sm.now()
	login.CreatedAt = now
	login.ExpiresAt = now.Add(sm.duration)

	encoded, err := sm.sealer.seal(login)
	if err != nil {
		return err
	}
	setCookie(w, LoginCookieName, encoded, int(sm.duration.Seconds()), sm.secure)
	return nil
}

// Get retrieves and validates the login from the cookie.
func (sm *SessionManager) Get(r *http.Request) (*Login, error) {
	cookie, err := r.Cookie(LoginCookieName)
	if err != nil {
		return nil, fmt.Errorf("login cookie not found: %w", err)
	}

	var login Login
	if err := sm.sealer.open(cookie.Value, &login); err != nil {
		return nil, err
	}

	if sm.now().After(login.ExpiresAt) {
		return nil, fmt.Errorf("login expired")
	}
	return &login, nil
}

// Clear clears the login cookie.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	setCookie(w, LoginCookieName, "", -1, sm.secure)
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
