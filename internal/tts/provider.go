// Package tts provides the speech-synthesis provider abstraction and its
// Gemini-backed implementation. Providers return raw PCM audio (mono, 16-bit,
// 24 kHz) and keep voice and language configuration internal, so callers can
// run multiple books or voices concurrently without cross-talk.
package tts

import "context"

// Provider synthesizes one batch of narration text into raw PCM audio
// (mono, 16-bit, 24 kHz). Implementations must be safe for concurrent use.
type Provider interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
