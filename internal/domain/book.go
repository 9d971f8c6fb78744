// Package domain defines the persisted data model for converted audiobooks.
package domain

import "math"

// Chapter is one narrated chapter of a book.
//
// Number is assigned densely over the canonical chapter list and never changes
// for a given book structure, regardless of which subset a run processes.
type Chapter struct {
	Number int    `json:"number"`
	Title  string `json:"title"`

	// NarrationText is the cleaned text sent to synthesis. It is not persisted;
	// metadata.json records only the artifact bindings.
	NarrationText string `json:"-"`

	// AudioFile is the audio artifact file name relative to the book directory,
	// empty until synthesis completes.
	AudioFile string `json:"audio_file,omitempty"`

	// TranscriptFile is the sentence-timestamp JSON file name, empty until
	// synthesis completes.
	TranscriptFile string `json:"transcript_file,omitempty"`

	DurationSeconds float64 `json:"duration_seconds"`
}

// HasAudio reports whether this chapter already has a generated audio binding.
func (c *Chapter) HasAudio() bool {
	return c.AudioFile != ""
}

// BookMetadata is the durable record for one converted book. It is the single
// source of truth across runs and round-trips losslessly through metadata.json.
type BookMetadata struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Author               string    `json:"author"`
	Description          string    `json:"description"`
	NarratorVoice        string    `json:"narrator_voice"`
	LanguageCode         string    `json:"language_code"`
	CoverImage           string    `json:"cover_image,omitempty"`
	TotalChapters        int       `json:"total_chapters"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	Chapters             []Chapter `json:"chapters"`
}

// ChapterByNumber returns the chapter with the given number, or nil.
func (m *BookMetadata) ChapterByNumber(number int) *Chapter {
	for i := range m.Chapters {
		if m.Chapters[i].Number == number {
			return &m.Chapters[i]
		}
	}
	return nil
}

// RecalculateTotals refreshes the chapter count and summed duration and rounds
// durations to the stored precision.
func (m *BookMetadata) RecalculateTotals() {
	total := 0.0
	for i := range m.Chapters {
		m.Chapters[i].DurationSeconds = Round2(m.Chapters[i].DurationSeconds)
		total += m.Chapters[i].DurationSeconds
	}
	m.TotalChapters = len(m.Chapters)
	m.TotalDurationSeconds = Round2(total)
}

// Round2 rounds to 2 fractional digits (stored duration precision).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round3 rounds to 3 fractional digits (stored timestamp precision).
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
