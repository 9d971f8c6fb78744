// Package synth implements the chunked synthesis pipeline: sentence
// splitting, provider-budget batching, and per-chapter audio assembly with
// proportional sentence timestamps.
package synth

import (
	"strings"
	"unicode"
)

// DefaultMaxChunkChars is the provider character budget per request.
const DefaultMaxChunkChars = 4000

// SplitSentences splits narration text on sentence-terminal punctuation
// followed by whitespace, keeping the punctuation. It is a lightweight
// heuristic, not a segmenter; abbreviations are not special-cased.
func SplitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		sb.WriteRune(r)
		if isTerminal(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(sb.String()); s != "" {
				sentences = append(sentences, s)
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// ChunkSentences packs sentences greedily into batches whose cumulative
// length (sentence length + 1 separator each) stays within maxChars. Order is
// preserved and no sentence is ever split; a single sentence over the budget
// goes into a batch of its own, untruncated.
func ChunkSentences(sentences []string, maxChars int) [][]string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	var chunks [][]string
	var current []string
	currentLen := 0

	for _, s := range sentences {
		n := len(s)
		if currentLen+n+1 > maxChars {
			if len(current) > 0 {
				chunks = append(chunks, current)
			}
			current = []string{s}
			currentLen = n
		} else {
			current = append(current, s)
			currentLen += n + 1
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
