package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/ringvirkning/internal/logging"
)

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tenants", s.handleTenants)
		r.Get("/config/default", s.handleDefaultConfig)
		r.Get("/scenarios", s.handleScenarios)
		r.Post("/calculate", s.handleCalculate)
		r.Post("/compare", s.handleCompare)

		r.Group(func(r chi.Router) {
			r.Use(s.cookies.middleware)

			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handlePutPreferences)

			r.Get("/simulator", s.handleGetSimulator)
			r.Put("/simulator", s.handlePutSimulator)
			r.Post("/simulator/undo", s.handleUndo)
			r.Post("/simulator/redo", s.handleRedo)
			r.Get("/simulator/report", s.handleReport)

			r.Get("/snapshots", s.handleListSnapshots)
			r.Post("/snapshots", s.handleCreateSnapshot)
			r.Patch("/snapshots/{id}", s.handleRenameSnapshot)
			r.Delete("/snapshots/{id}", s.handleDeleteSnapshot)

			r.Get("/comparison", s.handleGetComparison)
			r.Put("/comparison/{slot}", s.handleSetComparisonSlot)
		})
	})

	return r
}
