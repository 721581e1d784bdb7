package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler, limiter *ChatRateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(apiHandler.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", apiHandler.RegisterHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// Session-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.SessionMiddleware)

			r.Get("/user", apiHandler.GetUserHandler)
			r.Patch("/user", apiHandler.UpdateUserHandler)

			r.With(limiter.Middleware).Post("/chat", apiHandler.ChatHandler)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", apiHandler.ListConversationsHandler)
				r.Get("/{id}", apiHandler.GetConversationHandler)
				r.Patch("/{id}", apiHandler.RenameConversationHandler)
				r.Delete("/{id}", apiHandler.DeleteConversationHandler)
			})

			r.Route("/speeches", func(r chi.Router) {
				r.Get("/", apiHandler.ListSpeechesHandler)
				r.Post("/", apiHandler.CreateSpeechHandler)
				r.Get("/{id}", apiHandler.GetSpeechHandler)
				r.Patch("/{id}", apiHandler.UpdateSpeechHandler)
				r.Delete("/{id}", apiHandler.DeleteSpeechHandler)
			})

			r.Route("/resolutions", func(r chi.Router) {
				r.Get("/", apiHandler.ListResolutionsHandler)
				r.Post("/", apiHandler.CreateResolutionHandler)
				r.Get("/{id}", apiHandler.GetResolutionHandler)
				r.Patch("/{id}", apiHandler.UpdateResolutionHandler)
				r.Delete("/{id}", apiHandler.DeleteResolutionHandler)
			})

			r.Route("/research-notes", func(r chi.Router) {
				r.Get("/", apiHandler.ListResearchNotesHandler)
				r.Post("/", apiHandler.CreateResearchNoteHandler)
				r.Get("/{id}", apiHandler.GetResearchNoteHandler)
				r.Patch("/{id}", apiHandler.UpdateResearchNoteHandler)
				r.Delete("/{id}", apiHandler.DeleteResearchNoteHandler)
			})
		})
	})

	return r
}
