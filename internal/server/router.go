package server

import (
	"net/http"

	"github.com/Aashrithhh/Legal-Assistant/internal/api"
	"github.com/Aashrithhh/Legal-Assistant/internal/api/handlers"
	"github.com/Aashrithhh/Legal-Assistant/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

const defaultMaxBodyBytes int64 = 100 * 1024 * 1024

type RouterConfig struct {
	CaseHandler     *handlers.CaseHandler
	DocumentHandler *handlers.DocumentHandler
	AnalysisHandler *handlers.AnalysisHandler
	QuestionHandler *handlers.QuestionHandler

	// MaxBodyBytes caps request bodies, sized for multipart document
	// uploads. Zero means the default.
	MaxBodyBytes int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cases", func(r chi.Router) {
			r.Post("/", cfg.CaseHandler.Create)
			r.Get("/", cfg.CaseHandler.List)

			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", cfg.CaseHandler.Get)
				r.Delete("/", cfg.CaseHandler.Delete)
				r.Put("/metadata", cfg.CaseHandler.UpdateMetadata)
				r.Get("/status", cfg.DocumentHandler.Status)

				r.Route("/documents", func(r chi.Router) {
					r.Post("/", cfg.DocumentHandler.Upload)
					r.Get("/", cfg.DocumentHandler.List)
					r.Delete("/{documentID}", cfg.DocumentHandler.Delete)
				})

				r.Post("/analysis", cfg.AnalysisHandler.Run)
				r.Get("/analysis", cfg.AnalysisHandler.GetLatest)
				r.Post("/questions", cfg.QuestionHandler.Ask)
			})
		})
	})

	return r
}
