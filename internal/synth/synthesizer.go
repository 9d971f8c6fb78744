package synth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/inkvoice/inkvoice/internal/domain"
	apperrors "github.com/inkvoice/inkvoice/internal/errors"
	"github.com/inkvoice/inkvoice/internal/media"
	"github.com/inkvoice/inkvoice/internal/tts"
)

// Synthesizer renders chapter text to raw PCM with a sentence-level
// transcript. One Synthesizer is built per run with the style prompt already
// resolved; it is safe to share across chapter workers.
type Synthesizer struct {
	provider      tts.Provider
	stylePrompt   string
	maxChunkChars int
	logger        *slog.Logger
}

// New creates a Synthesizer. maxChunkChars <= 0 selects the default budget.
func New(provider tts.Provider, stylePrompt string, maxChunkChars int, logger *slog.Logger) *Synthesizer {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &Synthesizer{
		provider:      provider,
		stylePrompt:   stylePrompt,
		maxChunkChars: maxChunkChars,
		logger:        logger,
	}
}

// Result is one chapter's synthesized output.
type Result struct {
	PCM        []byte
	Duration   float64
	Transcript domain.Transcript
}

// SynthesizeChapter splits text into sentences, batches them within the
// provider budget, and synthesizes batch by batch, in order. Batch 0 carries
// the full style prime; later batches carry the pacing-consistency reminder
// because the provider has no cross-call memory.
//
// Each sentence gets a timestamp span sized by its share of the batch's
// characters, with a running cursor across the whole chapter. This is an
// estimate, not a measured alignment.
//
// Batches must run sequentially: each depends on the cursor position of the
// one before it. A provider failure abandons the chapter; audio from earlier
// batches is discarded.
func (s *Synthesizer) SynthesizeChapter(ctx context.Context, text string) (*Result, error) {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil, apperrors.Validation("chapter has no sentences to synthesize")
	}
	batches := ChunkSentences(sentences, s.maxChunkChars)

	var pcm []byte
	var segments []domain.Segment
	cursor := 0.0

	for i, batch := range batches {
		batchText := strings.Join(batch, " ")

		outbound := batchText
		switch {
		case i == 0 && s.stylePrompt != "":
			outbound = s.stylePrompt + "\n\n" + batchText
		case i > 0:
			outbound = tts.ConsistencyReminder + batchText
		}

		s.logger.Debug("synthesizing batch", "batch", i+1, "total", len(batches), "chars", len(batchText))

		audio, err := s.provider.Synthesize(ctx, outbound)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.CodeProvider, "batch %d/%d failed", i+1, len(batches))
		}
		if len(audio) == 0 {
			return nil, apperrors.Providerf("batch %d/%d returned empty audio", i+1, len(batches))
		}

		batchDuration := media.PCMDuration(audio)

		totalChars := 0
		for _, sentence := range batch {
			totalChars += len(sentence)
		}

		for _, sentence := range batch {
			var d float64
			if totalChars > 0 {
				d = batchDuration * float64(len(sentence)) / float64(totalChars)
			} else {
				d = batchDuration / float64(len(batch))
			}
			segments = append(segments, domain.Segment{
				Text:  sentence,
				Start: cursor,
				End:   cursor + d,
			})
			cursor += d
		}

		pcm = append(pcm, audio...)
	}

	duration := media.PCMDuration(pcm)
	return &Result{
		PCM:      pcm,
		Duration: duration,
		Transcript: domain.Transcript{
			Text:     text,
			Duration: duration,
			Segments: segments,
		},
	}, nil
}
