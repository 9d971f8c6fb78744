package chapters

import (
	"strings"

	"github.com/inkvoice/inkvoice/internal/epub"
)

// minChapterChars drops chapters whose narration text collapses to almost
// nothing once headings are stripped (a page that was only a title).
const minChapterChars = 50

// Assembled is a canonical chapter bound to the section it came from. The
// section index survives so a run selection expressed in section indices can
// be mapped back exactly.
type Assembled struct {
	Number       int
	Title        string
	Text         string
	SectionIndex int
}

// AssembleOptions control chapter text assembly.
type AssembleOptions struct {
	// IncludeHeadings keeps section headings in the narration text, so the
	// voice reads chapter titles aloud. Off by default.
	IncludeHeadings bool
}

// Assemble numbers the canonical content sections 1..N in structural order
// and attaches narration text. Numbering is permanent for the book: chapter i
// is the i-th canonical section, independent of any run selection.
//
// A section whose narration text is shorter than minChapterChars is dropped
// after its number is assigned, so the gap stays visible instead of silently
// renumbering everything behind it.
func Assemble(sections []epub.Section, contentIndices []int, opts AssembleOptions) []Assembled {
	selected := make(map[int]bool, len(contentIndices))
	for _, idx := range contentIndices {
		selected[idx] = true
	}

	var out []Assembled
	num := 0
	for _, s := range sections {
		if !selected[s.Index] {
			continue
		}
		num++

		text := s.NarrationText
		if opts.IncludeHeadings {
			text = s.CleanText
		}
		text = strings.TrimSpace(text)
		if len(text) < minChapterChars {
			continue
		}

		out = append(out, Assembled{
			Number:       num,
			Title:        s.Title,
			Text:         text,
			SectionIndex: s.Index,
		})
	}
	return out
}
