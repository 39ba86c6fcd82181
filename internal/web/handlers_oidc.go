package web

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/auth"
)

// handleLoginPage renders the login page.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := PageData{
		Title:        "Login",
		LoginEnabled: true,
	}

	// Check for flash message in query params
	if msg := r.URL.Query().Get("error"); msg != "" {
		data.Flashes = []FlashMessage{{Type: "error", Message: msg}}
	}

	s.render(w, "base-noauth", "login", data)
}

// handleLogout clears the login and the requirement session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(panelCookieName); err == nil {
		s.registry.Remove(cookie.Value)
	}
	s.clearPanelCookie(w)

	if s.oidc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.oidc.SessionManager.Clear(w)
	if s.oidc.LogoutURL != "" {
		http.Redirect(w, r, s.oidc.LogoutURL, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleOIDCLogin initiates the OIDC login flow.
func (s *Server) handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		http.Error(w, "OIDC authentication is not enabled", http.StatusNotFound)
		return
	}

	// Generate state and nonce
	stateData, err := s.oidc.StateStore.Generate(w)
	if err != nil {
		s.logger.Error("failed to generate OIDC state", zap.Error(err))
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Failed to initiate login"), http.StatusSeeOther)
		return
	}

	// Redirect to OIDC provider
	authURL := s.oidc.Authenticator.AuthCodeURL(stateData.State, stateData.Nonce)
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// handleOIDCCallback handles the OIDC callback after authentication.
func (s *Server) handleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		http.Error(w, "OIDC authentication is not enabled", http.StatusNotFound)
		return
	}

	ctx := r.Context()
	query := r.URL.Query()

	// Check for error from provider
	if errParam := query.Get("error"); errParam != "" {
		errDesc := query.Get("error_description")
		if errDesc == "" {
			errDesc = errParam
		}
		s.logger.Warn("OIDC provider returned error", zap.String("error", errParam), zap.String("description", errDesc))
		http.Redirect(w, r, "/login?error="+url.QueryEscape(errDesc), http.StatusSeeOther)
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error="+url.QueryEscape("No authorization code received"), http.StatusSeeOther)
		return
	}

	stateData, err := s.oidc.StateStore.Validate(r, query.Get("state"))
	if err != nil {
		s.logger.Warn("OIDC state validation failed", zap.Error(err))
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Invalid state parameter"), http.StatusSeeOther)
		return
	}
	s.oidc.StateStore.Clear(w)

	claims, err := s.oidc.Authenticator.Exchange(ctx, code, stateData.Nonce)
	if err != nil {
		s.logger.Warn("OIDC login failed", zap.Error(err))
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Failed to complete authentication"), http.StatusSeeOther)
		return
	}

	login := &auth.Login{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}
	if err := s.oidc.SessionManager.Create(w, login); err != nil {
		s.logger.Error("failed to create login session", zap.Error(err))
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Failed to create session"), http.StatusSeeOther)
		return
	}

	s.logger.Info("operator signed in", zap.String("operator", login.Operator()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
