package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxUpload = 32 << 20

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/dataset", s.uploadDataset)
		r.Get("/dataset/summary", s.datasetSummary)
		r.Get("/dataset/export", s.exportDataset)

		r.Post("/chat", s.chat)
		r.Get("/messages", s.listMessages)
		r.Delete("/messages", s.clearMessages)

		r.Post("/query", s.runQuery)
		r.Get("/report", s.downloadReport)
		r.Post("/report", s.saveReport)
	})
	return r
}
