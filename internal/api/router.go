package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the Job Control API's HTTP mux.
func NewRouter(s *Service) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/candidates", func(r chi.Router) {
		r.Post("/upload-chunk", s.UploadChunk)
		r.Post("/headers", s.Headers)
		r.Post("/process", s.Process)
		r.Get("/jobs", s.ListHistory)
		r.Get("/job/{id}/status", s.JobStatus)
		r.Post("/{id}/pause", s.Pause)
		r.Post("/{id}/resume", s.Resume)
	})

	return r
}
