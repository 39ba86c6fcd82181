package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/auth"
	"github.com/intelliment/puppet-integration/internal/present"
	"github.com/intelliment/puppet-integration/internal/service"
	"github.com/intelliment/puppet-integration/internal/session"
)

//go:embed templates/* static/*
var content embed.FS

// OIDCComponents holds the pieces needed for operator login. A nil
// *OIDCComponents disables login and every visitor is anonymous.
type OIDCComponents struct {
	Authenticator  auth.Authenticator
	SessionManager *auth.SessionManager
	StateStore     *auth.StateStore
	LogoutURL      string
}

// Config holds dependencies for the web panel.
type Config struct {
	Registry     *session.Registry
	History      *service.HistoryService
	OIDC         *OIDCComponents
	CookieSecure bool
	Logger       *zap.Logger
}

// Server holds dependencies for web handlers.
type Server struct {
	registry     *session.Registry
	history      *service.HistoryService
	oidc         *OIDCComponents
	cookieSecure bool
	logger       *zap.Logger
	templates    map[string]*template.Template
	funcMap      template.FuncMap
}

// NewRouter creates a new web router with all routes configured.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Server{
		registry:     cfg.Registry,
		history:      cfg.History,
		oidc:         cfg.OIDC,
		cookieSecure: cfg.CookieSecure,
		logger:       cfg.Logger,
	}

	// Parse all templates
	s.templates = s.parseTemplates()

	r := chi.NewRouter()

	// Static files
	staticFS, _ := fs.Sub(content, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Public routes
	r.Get("/login", s.handleLoginPage)
	r.Get("/logout", s.handleLogout)
	r.Get("/auth/oidc/login", s.handleOIDCLogin)
	r.Get("/auth/oidc/callback", s.handleOIDCCallback)

	// Panel routes (require login when OIDC is enabled)
	r.Group(func(r chi.Router) {
		r.Use(s.requireLogin)
		r.Use(s.panelSession)

		r.Get("/", s.handlePanel)
		r.Post("/scenario", s.handleSelectScenario)
		r.Post("/requirements/fetch", s.handleFetch)
		r.Post("/requirements/select-all", s.handleSelectAll)
		r.Post("/requirements/apply", s.handleApply)
		r.Post("/requirements/remove", s.handleRemove)

		r.Get("/history", s.handleHistory)
	})

	return r
}

// parseTemplates parses all templates with custom functions.
func (s *Server) parseTemplates() map[string]*template.Template {
	s.funcMap = template.FuncMap{
		"join":         strings.Join,
		"dict":         dict,
		"services":     present.FormatServices,
		"applications": present.FormatApplications,
		"actionClass":  present.ActionStyleClass,
	}

	templates := make(map[string]*template.Template)

	// Read base template and components
	baseContent, _ := content.ReadFile("templates/base.html")
	navContent, _ := content.ReadFile("templates/components/nav.html")
	flashContent, _ := content.ReadFile("templates/components/flash.html")
	rowsContent, _ := content.ReadFile("templates/components/requirements.html")

	// Combine base with components
	baseWithComponents := string(baseContent) + string(navContent) + string(flashContent) + string(rowsContent)

	// Parse each page template separately with the base
	pageFiles, _ := fs.Glob(content, "templates/pages/*.html")
	for _, pagePath := range pageFiles {
		pageName := filepath.Base(pagePath)
		pageName = strings.TrimSuffix(pageName, ".html")

		pageContent, _ := content.ReadFile(pagePath)

		tmpl, err := template.New(pageName).Funcs(s.funcMap).Parse(baseWithComponents + string(pageContent))
		if err != nil {
			panic("failed to parse template " + pageName + ": " + err.Error())
		}

		templates[pageName] = tmpl
	}

	return templates
}

// dict creates a map from key-value pairs for use in templates.
func dict(values ...any) map[string]any {
	if len(values)%2 != 0 {
		return nil
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		m[key] = values[i+1]
	}
	return m
}

// PageData holds common data passed to all page templates.
type PageData struct {
	Title        string
	Active       string // Current nav item
	Flashes      []FlashMessage
	Operator     string
	LoginEnabled bool
	Content      any
}

// FlashMessage represents a flash message.
type FlashMessage struct {
	Type    string // "success", "error", "info"
	Message string
}
