// Package converter orchestrates the whole pipeline: parse the EPUB, build
// the canonical chapter list, merge against prior runs, synthesize the
// selected chapters, and persist artifacts and metadata.
package converter

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/inkvoice/inkvoice/internal/chapters"
	"github.com/inkvoice/inkvoice/internal/domain"
	apperrors "github.com/inkvoice/inkvoice/internal/errors"
	"github.com/inkvoice/inkvoice/internal/epub"
	"github.com/inkvoice/inkvoice/internal/id"
	"github.com/inkvoice/inkvoice/internal/media"
	"github.com/inkvoice/inkvoice/internal/store"
	"github.com/inkvoice/inkvoice/internal/synth"
	"github.com/inkvoice/inkvoice/internal/tts"
	"github.com/inkvoice/inkvoice/internal/util"
	"golang.org/x/sync/errgroup"
)

// Options configure one conversion run.
type Options struct {
	EPUBPath   string
	OutputDir  string // book output directory; empty means <base>/<book-id>
	OutputBase string // base for derived directories; empty means "output"

	Voice        string
	LanguageCode string
	Style        string // preset name
	CustomStyle  string // full custom prompt, wins over Style

	// Selection is a section selection string like "2,4-7". When empty the
	// chapter-number range below applies instead.
	Selection    string
	StartChapter int
	EndChapter   int // 0 means "to last"

	SkipExisting    bool
	Force           bool
	DryRun          bool
	IncludeHeadings bool // narrate section headings instead of stripping them

	MaxChunkChars int
	MaxConcurrent int // chapter workers; 0 or 1 means sequential
}

// Result summarizes a conversion run.
type Result struct {
	Metadata  *domain.BookMetadata
	OutputDir string
	Chapters  []ChapterResult

	Generated int
	Skipped   int
	Failed    int

	// SelectionFallback is set when the selection could not be mapped and the
	// run fell back to all canonical chapters.
	SelectionFallback bool
}

// Converter runs conversions. One Converter can serve many books; all
// per-book state lives in the run.
type Converter struct {
	provider   tts.Provider
	transcoder *media.Transcoder
	logger     *slog.Logger
}

// New creates a Converter.
func New(provider tts.Provider, transcoder *media.Transcoder, logger *slog.Logger) *Converter {
	return &Converter{provider: provider, transcoder: transcoder, logger: logger}
}

// Convert runs the pipeline for one book. Per-chapter failures are recorded
// in the result, never returned as errors; only setup failures (unreadable
// book, uncreatable output directory) abort the run.
func (c *Converter) Convert(ctx context.Context, opts Options) (*Result, error) {
	log := c.logger.With("run", id.MustGenerate("run"))

	book, err := epub.Parse(opts.EPUBPath)
	if err != nil {
		return nil, err
	}
	for _, skip := range book.Skips {
		log.Debug("skipped outline entry", "label", skip.Label, "reason", skip.Reason)
	}
	log.Info("parsed book", "title", book.Title, "author", book.Author, "sections", len(book.Sections))

	// Canonical numbering comes from all sections, never from the selection.
	contentIndices := chapters.ContentIndices(book.Sections)
	assembled := chapters.Assemble(book.Sections, contentIndices, chapters.AssembleOptions{
		IncludeHeadings: opts.IncludeHeadings,
	})
	if len(assembled) == 0 {
		return nil, apperrors.Validation("no content chapters found in book")
	}

	bookID := util.Slugify(book.Title)
	outputDir := opts.OutputDir
	if outputDir == "" {
		base := opts.OutputBase
		if base == "" {
			base = "output"
		}
		outputDir = filepath.Join(base, bookID)
	}
	st, err := store.New(outputDir)
	if err != nil {
		return nil, err
	}

	existing, err := st.LoadMetadata()
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		log.Warn("could not load existing metadata, starting fresh", "error", err)
	}
	if existing != nil {
		log.Info("loaded existing metadata", "chapters", existing.TotalChapters)
	}

	meta := buildMetadata(book, bookID, assembled, opts)
	chapters.Merge(meta, existing)

	selected, fallback := c.selectChapters(assembled, contentIndices, len(book.Sections), opts)

	result := &Result{
		Metadata:          meta,
		OutputDir:         outputDir,
		SelectionFallback: fallback,
	}
	if len(selected) == 0 {
		log.Warn("no chapters selected for conversion")
		return result, nil
	}
	log.Info("chapters to process", "selected", len(selected), "total", len(meta.Chapters))

	if opts.DryRun {
		for _, ch := range selected {
			result.Chapters = append(result.Chapters, ChapterResult{
				Number: ch.Number,
				Title:  ch.Title,
				State:  StatePending,
			})
		}
		return result, nil
	}

	if len(book.CoverData) > 0 {
		name, err := st.SaveCover(book.CoverData, book.CoverExt)
		if err != nil {
			log.Warn("could not save cover image", "error", err)
		} else {
			meta.CoverImage = name
		}
	}

	style := tts.ResolveStyle(opts.Style, opts.CustomStyle)
	synthesizer := synth.New(c.provider, style, opts.MaxChunkChars, c.logger)

	result.Chapters = c.processChapters(ctx, st, synthesizer, meta, selected, opts)

	// Fold the run's outcomes into the merged structure. Failed chapters
	// keep whatever binding the merge gave them.
	for _, cr := range result.Chapters {
		ch := meta.ChapterByNumber(cr.Number)
		if ch == nil {
			continue
		}
		switch cr.State {
		case StateDone:
			ch.AudioFile = cr.AudioFile
			ch.TranscriptFile = cr.TranscriptFile
			ch.DurationSeconds = cr.Duration
			result.Generated++
		case StateSkipped:
			ch.AudioFile = cr.AudioFile
			if ch.DurationSeconds == 0 {
				ch.DurationSeconds = cr.Duration
			}
			if cr.TranscriptFile != "" {
				ch.TranscriptFile = cr.TranscriptFile
			}
			result.Skipped++
		case StateFailed:
			result.Failed++
		}
	}

	meta.RecalculateTotals()
	if err := st.SaveMetadata(meta); err != nil {
		return result, err
	}

	log.Info("conversion finished",
		"generated", result.Generated,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"total_duration", meta.TotalDurationSeconds,
		"output", outputDir)
	return result, ctx.Err()
}

// selectChapters applies the run selection: explicit section selection if
// given, else the chapter-number range.
func (c *Converter) selectChapters(assembled []chapters.Assembled, contentIndices []int, sectionCount int, opts Options) ([]chapters.Assembled, bool) {
	if opts.Selection != "" {
		indices := chapters.ParseSelection(opts.Selection, sectionCount)
		if len(indices) == 0 {
			c.logger.Warn("selection matched no sections", "selection", opts.Selection)
			return nil, false
		}
		selected, ok := chapters.Select(assembled, contentIndices, indices)
		if !ok {
			c.logger.Warn("chapter/section mapping mismatch, converting all chapters")
			return selected, true
		}
		return selected, false
	}

	start := opts.StartChapter
	if start < 1 {
		start = 1
	}
	return chapters.SelectRange(assembled, start, opts.EndChapter), false
}

// processChapters runs the selected chapters, optionally in parallel.
// Chapters are independent once numbering and merge are done; each worker
// writes only chapter-number-qualified files. Cancellation is checked at
// chapter boundaries only.
func (c *Converter) processChapters(ctx context.Context, st *store.Store, synthesizer *synth.Synthesizer, meta *domain.BookMetadata, selected []chapters.Assembled, opts Options) []ChapterResult {
	results := make([]ChapterResult, len(selected))

	workers := opts.MaxConcurrent
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, ch := range selected {
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				results[i] = ChapterResult{Number: ch.Number, Title: ch.Title, State: StatePending, Err: ctx.Err()}
				mu.Unlock()
				return nil
			}
			cr := c.processChapter(ctx, st, synthesizer, meta, ch, opts)
			mu.Lock()
			results[i] = cr
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].Number < results[b].Number })
	return results
}

// processChapter drives one chapter through the state machine.
func (c *Converter) processChapter(ctx context.Context, st *store.Store, synthesizer *synth.Synthesizer, meta *domain.BookMetadata, ch chapters.Assembled, opts Options) ChapterResult {
	cr := ChapterResult{Number: ch.Number, Title: ch.Title, State: StatePending}
	log := c.logger.With("chapter", ch.Number, "title", ch.Title)

	if opts.SkipExisting && !opts.Force {
		if name, duration, ok := st.ExistingAudio(ch.Number); ok {
			cr.State = StateSkipped
			cr.AudioFile = name
			cr.Duration = duration
			if st.HasTranscript(ch.Number) {
				cr.TranscriptFile = store.TranscriptFileName(ch.Number)
			}
			log.Info("skipping chapter, audio exists", "file", name)
			return cr
		}
	}

	cr.State = StateSynthesizing
	log.Info("synthesizing chapter", "chars", len(ch.Text))

	res, err := synthesizer.SynthesizeChapter(ctx, ch.Text)
	if err != nil {
		cr.State = StateFailed
		cr.Err = err
		log.Error("chapter synthesis failed", "error", err)
		return cr
	}

	cr.State = StateStitching

	wavName := store.AudioFileName(ch.Number, "wav")
	if err := media.WriteWAV(st.Path(wavName), res.PCM); err != nil {
		cr.State = StateFailed
		cr.Err = err
		log.Error("could not write chapter audio", "error", err)
		return cr
	}

	// Transcode to the delivery format; on failure the WAV stays as the
	// chapter's artifact.
	audioName := store.AudioFileName(ch.Number, "mp3")
	if err := c.transcoder.ToMP3(ctx, st.Path(wavName), st.Path(audioName)); err != nil {
		audioName = wavName
	} else if err := media.TagMP3(st.Path(audioName), media.Tag{
		Title:      ch.Title,
		Album:      meta.Title,
		Artist:     meta.Author,
		Narrator:   meta.NarratorVoice,
		Track:      ch.Number,
		TrackTotal: len(meta.Chapters),
		Genre:      "Audiobook",
	}); err != nil {
		log.Warn("could not tag chapter audio", "error", err)
	}

	transcriptName, err := st.SaveTranscript(ch.Number, res.Transcript)
	if err != nil {
		log.Warn("could not save transcript", "error", err)
	}

	cr.State = StateDone
	cr.AudioFile = audioName
	cr.TranscriptFile = transcriptName
	cr.Duration = res.Duration
	log.Info("chapter done", "file", audioName, "duration", res.Duration)
	return cr
}

// buildMetadata creates the fresh metadata skeleton for this run, before
// merge. Narration text rides along in memory only.
func buildMetadata(book *epub.Book, bookID string, assembled []chapters.Assembled, opts Options) *domain.BookMetadata {
	voice := opts.Voice
	if voice == "" {
		voice = tts.DefaultVoice
	}
	language := opts.LanguageCode
	if language == "" {
		language = "en-US"
	}

	meta := &domain.BookMetadata{
		ID:            bookID,
		Title:         book.Title,
		Author:        book.Author,
		Description:   book.Description,
		NarratorVoice: voice,
		LanguageCode:  language,
	}
	for _, ch := range assembled {
		meta.Chapters = append(meta.Chapters, domain.Chapter{
			Number:        ch.Number,
			Title:         ch.Title,
			NarrationText: ch.Text,
		})
	}
	meta.RecalculateTotals()
	return meta
}
