package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chatscope/chatscope/internal/clientip"
	"github.com/chatscope/chatscope/internal/db"
	"github.com/chatscope/chatscope/internal/fetch"
	"github.com/chatscope/chatscope/internal/logger"
	"github.com/chatscope/chatscope/internal/pipeline"
	"github.com/chatscope/chatscope/internal/ratelimit"
	"github.com/chatscope/chatscope/internal/storage"
)

// Server holds dependencies for API handlers
type Server struct {
	db       *db.DB
	storage  *storage.S3Storage
	fetcher  *fetch.Client
	analyzer *pipeline.Analyzer
	limiter  ratelimit.RateLimiter
	version  string
}

// NewServer creates a new API server
func NewServer(database *db.DB, store *storage.S3Storage, fetcher *fetch.Client, analyzer *pipeline.Analyzer, limiter ratelimit.RateLimiter, version string) *Server {
	return &Server{
		db:       database,
		storage:  store,
		fetcher:  fetcher,
		analyzer: analyzer,
		limiter:  limiter,
		version:  version,
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(clientip.Middleware)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Encoding"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(validateContentType)
			r.Use(decompressMiddleware())
			if s.limiter != nil {
				r.Use(ratelimit.Middleware(s.limiter))
			}
			r.Post("/analyses", s.handleCreateAnalysis)
		})

		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Get("/analyses/{id}/result", s.handleGetAnalysisResult)
		r.Delete("/analyses/{id}", s.handleDeleteAnalysis)
	})

	return r
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleRoot returns API info
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "chatscope-backend",
		"version": "v1",
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response in the pipeline's wire shape.
func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]string{
		"status": "error",
		"error":  code,
	})
}
