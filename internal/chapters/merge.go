package chapters

import "github.com/inkvoice/inkvoice/internal/domain"

// Merge carries audio bindings forward from previously persisted metadata
// into a freshly assembled structure. Keyed strictly on chapter number: if
// the book's outline changed and chapters renumbered, stale bindings for the
// shifted numbers are simply not found, which is the intended invalidation.
// Merge never clears a binding the fresh structure already has.
func Merge(fresh *domain.BookMetadata, existing *domain.BookMetadata) {
	if existing == nil {
		return
	}

	byNumber := make(map[int]*domain.Chapter, len(existing.Chapters))
	for i := range existing.Chapters {
		byNumber[existing.Chapters[i].Number] = &existing.Chapters[i]
	}

	for i := range fresh.Chapters {
		old, ok := byNumber[fresh.Chapters[i].Number]
		if !ok {
			continue
		}
		if old.AudioFile != "" {
			fresh.Chapters[i].AudioFile = old.AudioFile
			fresh.Chapters[i].DurationSeconds = old.DurationSeconds
		}
		if old.TranscriptFile != "" {
			fresh.Chapters[i].TranscriptFile = old.TranscriptFile
		}
	}
}
