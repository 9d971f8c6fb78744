// Package chapters turns parsed sections into the canonical chapter list:
// classification of real content vs front/back matter, permanent chapter
// numbering, run selection, and merging against previously persisted metadata.
package chapters

import (
	"regexp"
	"strings"

	"github.com/inkvoice/inkvoice/internal/epub"
)

// minContentWords gates "is this really chapter content". Dedications and
// part-title pages routinely pass the title patterns but stay well under it.
const minContentWords = 100

// frontMatterPatterns match section titles that are structural front or back
// matter. Matched as substring search, case-insensitive, so "Copyright Page"
// and "US Copyright Notice" both hit.
var frontMatterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)table\s*of\s*contents`),
	regexp.MustCompile(`(?i)^contents$`),
	regexp.MustCompile(`(?i)^toc$`),
	regexp.MustCompile(`(?i)copyright`),
	regexp.MustCompile(`(?i)dedication`),
	regexp.MustCompile(`(?i)acknowledgments?`),
	regexp.MustCompile(`(?i)title\s*page`),
	regexp.MustCompile(`(?i)about\s*the\s*author`),
	regexp.MustCompile(`(?i)also\s*by`),
	regexp.MustCompile(`(?i)^cover$`),
}

// IsContent reports whether a section belongs in the canonical chapter list.
func IsContent(title string, wordCount int) bool {
	if wordCount < minContentWords {
		return false
	}
	t := strings.TrimSpace(strings.ToLower(title))
	for _, p := range frontMatterPatterns {
		if p.MatchString(t) {
			return false
		}
	}
	return true
}

// ContentIndices returns the section indices of the canonical content set, in
// structural order. This set defines permanent chapter numbering and is always
// computed over all sections, never over a run's selection.
func ContentIndices(sections []epub.Section) []int {
	var indices []int
	for _, s := range sections {
		if IsContent(s.Title, s.WordCount) {
			indices = append(indices, s.Index)
		}
	}
	return indices
}
