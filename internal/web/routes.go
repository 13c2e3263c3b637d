package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/TrentConley/face-authentication/internal/web/handlers"
)

func (s *Server) setupRoutes(deps handlers.Deps) {
	statusHandler := handlers.NewStatusHandler(deps)
	galleryHandler := handlers.NewGalleryHandler(deps)
	eventsHandler := handlers.NewEventsHandler(deps)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.Get)
		r.Get("/events", eventsHandler.Stream)

		r.Get("/gallery", galleryHandler.List)
		r.Post("/gallery/{identity}", galleryHandler.Register)
		r.Delete("/gallery/{identity}", galleryHandler.Delete)
	})
}
