package web

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/service"
	"github.com/intelliment/puppet-integration/internal/session"
)

// PanelData holds data for the requirements panel.
type PanelData struct {
	State session.State
}

// handlePanel renders the requirements panel and shows pending notifications.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	entry := getEntry(r.Context())

	data := s.pageData(r, "Requirements", "panel")
	for _, msg := range entry.Inbox.Drain() {
		data.Flashes = append(data.Flashes, FlashMessage{Type: "error", Message: msg})
	}
	data.Content = PanelData{State: entry.Session.Snapshot()}

	s.render(w, "base", "panel", data)
}

// handleSelectScenario selects (or clears) the scenario.
func (s *Server) handleSelectScenario(w http.ResponseWriter, r *http.Request) {
	entry := getEntry(r.Context())
	if !s.parseForm(w, r, entry) {
		return
	}

	id := formIdentifiers([]string{r.FormValue("scenario")})
	var err error
	if len(id) == 0 {
		err = entry.Session.ClearScenario()
	} else {
		err = entry.Session.SelectScenario(id[0])
	}
	s.done(w, r, "select scenario", err)
}

// handleFetch loads the requirements of the selected scenario.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	entry := getEntry(r.Context())
	s.done(w, r, "fetch requirements", entry.Session.FetchRequirements(r.Context()))
}

// handleSelectAll sets a list's select-all flag and copies it onto the list.
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	entry := getEntry(r.Context())
	if !s.parseForm(w, r, entry) {
		return
	}

	list, err := session.ParseList(r.FormValue("list"))
	if err != nil {
		entry.Inbox.Notify(err.Error())
		s.done(w, r, "select all", err)
		return
	}

	if err := entry.Session.SetSelectAll(list, formBool(r.FormValue("all"))); err != nil {
		s.done(w, r, "select all", err)
		return
	}
	s.done(w, r, "select all", entry.Session.ToggleSelectAll(list))
}

// handleApply applies the checked new requirements.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	entry := getEntry(r.Context())
	if !s.parseForm(w, r, entry) {
		return
	}

	if _, err := entry.Session.SetSelection(session.ListNew, formIdentifiers(r.Form[string(session.ListNew)])); err != nil {
		s.done(w, r, "apply requirements", err)
		return
	}
	s.done(w, r, "apply requirements", entry.Session.ApplyRequirements(r.Context()))
}

// handleRemove removes the checked existing requirements.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	entry := getEntry(r.Context())
	if !s.parseForm(w, r, entry) {
		return
	}

	if _, err := entry.Session.SetSelection(session.ListExisting, formIdentifiers(r.Form[string(session.ListExisting)])); err != nil {
		s.done(w, r, "remove requirements", err)
		return
	}
	s.done(w, r, "remove requirements", entry.Session.RemoveRequirements(r.Context()))
}

// HistoryData holds data for the history page.
type HistoryData struct {
	Page       *service.ChangePage
	PrevOffset int
	NextOffset int
	HasPrev    bool
	HasNext    bool
}

// handleHistory renders recent apply and remove attempts.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), service.DefaultPageSize)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	page, err := s.history.ListChanges(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("listing changes failed", zap.Error(err))
		s.renderError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	data := s.pageData(r, "History", "history")
	data.Content = HistoryData{
		Page:       page,
		PrevOffset: max(page.Offset-page.Limit, 0),
		NextOffset: page.Offset + page.Limit,
		HasPrev:    page.Offset > 0,
		HasNext:    page.Offset+len(page.Changes) < page.Total,
	}
	s.render(w, "base", "history", data)
}

func (s *Server) pageData(r *http.Request, title, active string) PageData {
	data := PageData{
		Title:        title,
		Active:       active,
		LoginEnabled: s.oidc != nil,
	}
	if login := getLogin(r.Context()); login != nil {
		data.Operator = login.DisplayName()
	}
	return data
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, entry *session.Entry) bool {
	if err := r.ParseForm(); err != nil {
		entry.Inbox.Notify("Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return false
	}
	return true
}

// done finishes a panel action. Failures have already been reported to the
// operator through the session's inbox.
func (s *Server) done(w http.ResponseWriter, r *http.Request, action string, err error) {
	if err != nil {
		s.logger.Debug("panel action failed", zap.String("action", action), zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render renders a full page using the base template.
// page is the page name (e.g., "login", "panel", "history")
// base is the base template to use ("base" or "base-noauth")
func (s *Server) render(w http.ResponseWriter, base, page string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, ok := s.templates[page]
	if !ok {
		http.Error(w, "Template not found: "+page, http.StatusInternalServerError)
		return
	}

	if err := tmpl.ExecuteTemplate(w, base, data); err != nil {
		s.logger.Error("template error", zap.String("page", page), zap.Error(err))
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// renderError renders an error message.
func (s *Server) renderError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`<div class="flash flash-error">` + template.HTMLEscapeString(message) + `</div>`))
}
