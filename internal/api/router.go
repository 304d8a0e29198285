package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// Prefix is where the Task API is mounted.
const Prefix = "/api/v2"

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	db *store.DB,
	users *store.UserStore,
	annotations *store.AnnotationStore,
	tokens *store.TokenStore,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(db)
	authH := NewAuthHandler(users, tokens, annotations, logger)
	taskH := NewTaskHandler(annotations, logger)

	r.Get("/health", healthH.Health)

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/login", authH.Login)
		r.Post("/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(tokens, logger))

			r.Post("/logout", authH.Logout)
			r.Get("/me", authH.Me)
			r.Get("/stats", taskH.Stats)

			r.Route("/task", func(r chi.Router) {
				r.Get("/next", taskH.Next)
				r.Get("/history", taskH.History)
				r.Get("/pending-preview", taskH.PendingPreview)
				r.Get("/load/{id}", taskH.Load)
			})

			r.Route("/annotations", func(r chi.Router) {
				r.Get("/{id}", taskH.Load)
				r.Put("/{id}", taskH.Update)
			})
		})
	})

	return r
}
