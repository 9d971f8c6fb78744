// Package store persists a book's output artifacts: metadata.json, per-chapter
// audio and transcripts, and the cover image. Metadata writes are atomic
// (write to a temp file, then rename) so a crash mid-save never corrupts a
// previously valid metadata file.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkvoice/inkvoice/internal/domain"
	apperrors "github.com/inkvoice/inkvoice/internal/errors"
	"github.com/inkvoice/inkvoice/internal/media"
)

const metadataFile = "metadata.json"

// AudioFileName is the deterministic artifact name for a chapter, so repeat
// runs can detect existing output without consulting metadata.
func AudioFileName(number int, ext string) string {
	return fmt.Sprintf("chapter-%02d.%s", number, ext)
}

// TranscriptFileName is the deterministic transcript name for a chapter.
func TranscriptFileName(number int) string {
	return fmt.Sprintf("chapter-%02d-transcript.json", number)
}

// Store manages one book's output directory.
type Store struct {
	dir string
}

// New creates the book's output directory if needed. A directory that cannot
// be created is fatal for the whole run, so this is the one place that errors
// hard.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Internalf("create output directory %s", dir).WithCause(err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the book's output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of a file inside the book directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// SaveMetadata writes metadata.json atomically.
func (s *Store) SaveMetadata(meta *domain.BookMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return apperrors.Internal("marshal metadata").WithCause(err)
	}
	return s.writeAtomic(metadataFile, data)
}

// LoadMetadata reads metadata.json. A missing file returns ErrNotFound; an
// unreadable or malformed file is an internal error, distinct so callers can
// treat "no previous run" differently from "previous run left garbage".
func (s *Store) LoadMetadata() (*domain.BookMetadata, error) {
	data, err := os.ReadFile(s.Path(metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("no metadata file")
		}
		return nil, apperrors.Internal("read metadata").WithCause(err)
	}

	var meta domain.BookMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, apperrors.Internal("decode metadata").WithCause(err)
	}
	return &meta, nil
}

// SaveTranscript writes a chapter transcript atomically and returns the file
// name recorded in metadata. The transcript is normalized for storage first.
func (s *Store) SaveTranscript(number int, tr domain.Transcript) (string, error) {
	tr.Normalize()
	data, err := json.MarshalIndent(&tr, "", "  ")
	if err != nil {
		return "", apperrors.Internal("marshal transcript").WithCause(err)
	}

	name := TranscriptFileName(number)
	if err := s.writeAtomic(name, data); err != nil {
		return "", err
	}
	return name, nil
}

// LoadTranscript reads a chapter's transcript file.
func (s *Store) LoadTranscript(number int) (*domain.Transcript, error) {
	data, err := os.ReadFile(s.Path(TranscriptFileName(number)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFoundf("no transcript for chapter %d", number)
		}
		return nil, apperrors.Internal("read transcript").WithCause(err)
	}

	var tr domain.Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, apperrors.Internal("decode transcript").WithCause(err)
	}
	return &tr, nil
}

// SaveCover writes the cover image and returns its file name.
func (s *Store) SaveCover(data []byte, ext string) (string, error) {
	name := "cover." + ext
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return "", apperrors.Internal("write cover").WithCause(err)
	}
	return name, nil
}

// ExistingAudio looks for an already-synthesized artifact for a chapter
// number, MP3 first. The returned duration is exact for WAV (computed from
// the header) and a rough byte-size estimate for MP3; real durations come
// from prior metadata when available.
func (s *Store) ExistingAudio(number int) (string, float64, bool) {
	mp3 := AudioFileName(number, "mp3")
	if info, err := os.Stat(s.Path(mp3)); err == nil {
		return mp3, float64(info.Size()) / 24000, true
	}

	wav := AudioFileName(number, "wav")
	if _, err := os.Stat(s.Path(wav)); err == nil {
		duration, err := media.WAVDuration(s.Path(wav))
		if err != nil {
			duration = 0
		}
		return wav, duration, true
	}

	return "", 0, false
}

// HasTranscript reports whether a chapter's transcript file exists.
func (s *Store) HasTranscript(number int) bool {
	_, err := os.Stat(s.Path(TranscriptFileName(number)))
	return err == nil
}

// writeAtomic writes to a temp file in the same directory, then renames over
// the target.
func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return apperrors.Internalf("create temp file for %s", name).WithCause(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.Internalf("write %s", name).WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.Internalf("close %s", name).WithCause(err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return apperrors.Internalf("replace %s", name).WithCause(err)
	}
	return nil
}
