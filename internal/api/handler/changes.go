package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/service"
)

// ChangeHandler serves the change history.
type ChangeHandler struct {
	history *service.HistoryService
}

// NewChangeHandler creates a new ChangeHandler.
func NewChangeHandler(history *service.HistoryService) *ChangeHandler {
	return &ChangeHandler{history: history}
}

// List lists changes, newest first.
func (h *ChangeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		respondStandardError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "limit must be a non-negative integer", nil)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondStandardError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "offset must be a non-negative integer", nil)
		return
	}

	page, err := h.history.ListChanges(r.Context(), limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// Get returns a single change. Changes never change once recorded, so the
// response carries an ETag and honours If-None-Match.
func (h *ChangeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	change, err := h.history.GetChange(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	SetETagHeader(w, "change", change.ID, change.CreatedAt)
	if CheckIfNoneMatch(r, "change", change.ID, change.CreatedAt) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondJSON(w, http.StatusOK, change)
}
