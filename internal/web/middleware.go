package web

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/auth"
	"github.com/intelliment/puppet-integration/internal/session"
)

const panelCookieName = "reqpanel_session"

type contextKey string

const (
	loginContextKey contextKey = "login"
	entryContextKey contextKey = "entry"
)

// requireLogin redirects to the login page unless the request carries a
// valid login cookie. It does nothing when OIDC is disabled.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.oidc == nil {
			next.ServeHTTP(w, r)
			return
		}

		login, err := s.oidc.SessionManager.Get(r)
		if err != nil {
			s.logger.Debug("no valid login", zap.Error(err))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), loginContextKey, login)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// panelSession attaches the browser's requirement session, creating one
// when the cookie is missing, expired or belongs to another operator.
func (s *Server) panelSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator := getOperator(r.Context())

		var entry *session.Entry
		if cookie, err := r.Cookie(panelCookieName); err == nil {
			if e, ok := s.registry.Get(cookie.Value); ok && e.Session.Operator() == operator {
				entry = e
			}
		}

		if entry == nil {
			e, err := s.registry.Create(r.Context(), operator)
			if err != nil {
				s.logger.Error("creating requirement session failed", zap.Error(err))
				s.renderError(w, "Failed to start a session", http.StatusInternalServerError)
				return
			}
			entry = e
			s.setPanelCookie(w, entry.ID)
		}

		ctx := context.WithValue(r.Context(), entryContextKey, entry)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getLogin retrieves the operator login from context.
func getLogin(ctx context.Context) *auth.Login {
	login, _ := ctx.Value(loginContextKey).(*auth.Login)
	return login
}

// getOperator returns the logged-in operator, or "" when anonymous.
func getOperator(ctx context.Context) string {
	if login := getLogin(ctx); login != nil {
		return login.Operator()
	}
	return ""
}

// getEntry retrieves the requirement session from context.
func getEntry(ctx context.Context) *session.Entry {
	entry, _ := ctx.Value(entryContextKey).(*session.Entry)
	return entry
}

func (s *Server) setPanelCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     panelCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.cookieSecure,
	})
}

func (s *Server) clearPanelCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     panelCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.cookieSecure,
	})
}
