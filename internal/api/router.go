package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/api/handler"
	"github.com/intelliment/puppet-integration/internal/api/middleware"
	"github.com/intelliment/puppet-integration/internal/service"
	"github.com/intelliment/puppet-integration/internal/web"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(history *service.HistoryService, webConfig web.Config, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if webConfig.History == nil {
		webConfig.History = history
	}
	if webConfig.Logger == nil {
		webConfig.Logger = logger
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)

		changeHandler := handler.NewChangeHandler(history)
		r.Get("/changes", changeHandler.List)
		r.Get("/changes/{id}", changeHandler.Get)
	})

	// Mount web UI (no Content-Type middleware - serves HTML)
	r.Mount("/", web.NewRouter(webConfig))

	return r
}
