package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inkvoice/inkvoice/internal/domain"
	apperrors "github.com/inkvoice/inkvoice/internal/errors"
	"github.com/inkvoice/inkvoice/internal/http/response"
	"github.com/inkvoice/inkvoice/internal/store"
)

// bookSummary is the list-view projection of a book.
type bookSummary struct {
	ID                   string  `json:"id"`
	Title                string  `json:"title"`
	Author               string  `json:"author"`
	NarratorVoice        string  `json:"narrator_voice"`
	TotalChapters        int     `json:"total_chapters"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	CoverImage           string  `json:"cover_image,omitempty"`
}

// handleListBooks lists every converted book in the library.
// GET /api/v1/books
func (s *Server) handleListBooks(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(s.libraryDir)
	if err != nil {
		if os.IsNotExist(err) {
			response.Success(w, []bookSummary{}, s.logger)
			return
		}
		s.logger.Error("could not read library directory", "error", err)
		response.InternalError(w, "could not read library", s.logger)
		return
	}

	summaries := []bookSummary{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, _, err := s.loadBook(entry.Name())
		if err != nil {
			// Directories without valid metadata are not books.
			continue
		}
		summaries = append(summaries, bookSummary{
			ID:                   meta.ID,
			Title:                meta.Title,
			Author:               meta.Author,
			NarratorVoice:        meta.NarratorVoice,
			TotalChapters:        meta.TotalChapters,
			TotalDurationSeconds: meta.TotalDurationSeconds,
			CoverImage:           meta.CoverImage,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Title < summaries[j].Title })

	response.Success(w, summaries, s.logger)
}

// handleGetBook returns a book's full metadata, chapters included.
// GET /api/v1/books/{id}
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	meta, _, err := s.loadBook(chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, meta, s.logger)
}

// handleGetCover serves a book's cover image.
// GET /api/v1/books/{id}/cover
func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	meta, st, err := s.loadBook(chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if meta.CoverImage == "" {
		response.NotFound(w, "book has no cover", s.logger)
		return
	}
	s.serveBookFile(w, r, st, meta.CoverImage)
}

// handleGetChapterAudio serves a chapter's audio artifact.
// GET /api/v1/books/{id}/chapters/{number}/audio
func (s *Server) handleGetChapterAudio(w http.ResponseWriter, r *http.Request) {
	_, st, ch, err := s.loadChapter(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if ch.AudioFile == "" {
		response.NotFound(w, "chapter has no audio", s.logger)
		return
	}
	s.serveBookFile(w, r, st, ch.AudioFile)
}

// handleGetChapterTranscript serves a chapter's transcript JSON.
// GET /api/v1/books/{id}/chapters/{number}/transcript
func (s *Server) handleGetChapterTranscript(w http.ResponseWriter, r *http.Request) {
	_, st, ch, err := s.loadChapter(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if ch.TranscriptFile == "" {
		response.NotFound(w, "chapter has no transcript", s.logger)
		return
	}

	tr, err := st.LoadTranscript(ch.Number)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, tr, s.logger)
}

// loadChapter resolves the {id}/{number} pair of a chapter route.
func (s *Server) loadChapter(r *http.Request) (*domain.BookMetadata, *store.Store, *domain.Chapter, error) {
	meta, st, err := s.loadBook(chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, nil, err
	}

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		return nil, nil, nil, apperrors.Validation("invalid chapter number")
	}

	ch := meta.ChapterByNumber(number)
	if ch == nil {
		return nil, nil, nil, apperrors.NotFoundf("chapter %d not found", number)
	}
	return meta, st, ch, nil
}

// serveBookFile serves a file from inside a book directory. Names come from
// our own metadata, but a final base-name check keeps a tampered metadata
// file from reaching outside the directory.
func (s *Server) serveBookFile(w http.ResponseWriter, r *http.Request, st *store.Store, name string) {
	if name != filepath.Base(name) {
		response.BadRequest(w, "invalid file reference", s.logger)
		return
	}
	http.ServeFile(w, r, st.Path(name))
}
