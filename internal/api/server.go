// Package api provides the read-only HTTP API over a converted library
// directory: book metadata, cover images, chapter audio, and transcripts.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkvoice/inkvoice/internal/domain"
	apperrors "github.com/inkvoice/inkvoice/internal/errors"
	"github.com/inkvoice/inkvoice/internal/http/response"
	"github.com/inkvoice/inkvoice/internal/store"
)

// bookIDPattern matches slugified book IDs. Anything else in the {id} slot is
// rejected before it can touch the filesystem.
var bookIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Server holds dependencies for HTTP handlers.
type Server struct {
	libraryDir string
	router     *chi.Mux
	logger     *slog.Logger
}

// NewServer creates a new HTTP server over a library directory. Each
// subdirectory with a metadata.json is one book.
func NewServer(libraryDir string, logger *slog.Logger) *Server {
	s := &Server{
		libraryDir: libraryDir,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Range"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)
			r.Get("/{id}/cover", s.handleGetCover)
			r.Get("/{id}/chapters/{number}/audio", s.handleGetChapterAudio)
			r.Get("/{id}/chapters/{number}/transcript", s.handleGetChapterTranscript)
		})
	})
}

// handleHealthCheck reports liveness.
// GET /health
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{"status": "ok"}, s.logger)
}

// loadBook opens one book's metadata by ID, guarding against IDs that are
// not plain slugs.
func (s *Server) loadBook(id string) (*domain.BookMetadata, *store.Store, error) {
	if !bookIDPattern.MatchString(id) {
		return nil, nil, apperrors.Validation("invalid book id")
	}

	dir := filepath.Join(s.libraryDir, id)
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, apperrors.NotFoundf("book %s not found", id)
	}

	st, err := store.New(dir)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.LoadMetadata()
	if err != nil {
		return nil, nil, err
	}
	return meta, st, nil
}
