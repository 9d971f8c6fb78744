package chapters

import (
	"sort"
	"strconv"
	"strings"
)

// ParseSelection parses a section selection like "2,4-7,10" into a sorted,
// de-duplicated index list clamped to [1, maxIndex]. Malformed parts are
// ignored rather than erroring; an all-garbage selection yields nil and the
// caller decides what that means.
func ParseSelection(selection string, maxIndex int) []int {
	seen := make(map[int]bool)

	for _, part := range strings.Split(strings.ReplaceAll(selection, " ", ""), ",") {
		if part == "" {
			continue
		}
		if start, end, ok := strings.Cut(part, "-"); ok {
			lo, err1 := strconv.Atoi(start)
			hi, err2 := strconv.Atoi(end)
			if err1 != nil || err2 != nil {
				continue
			}
			for i := lo; i <= hi; i++ {
				seen[i] = true
			}
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			seen[n] = true
		}
	}

	var indices []int
	for i := range seen {
		if i >= 1 && i <= maxIndex {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return indices
}

// Select filters assembled chapters down to those whose source section index
// is in selectedSections. If the assembled list does not line up 1:1 with the
// canonical index list, the mapping cannot be trusted and selection fails
// closed to all chapters; the second return is false in that case so the
// caller can warn.
func Select(assembled []Assembled, contentIndices, selectedSections []int) ([]Assembled, bool) {
	if len(assembled) != len(contentIndices) {
		return assembled, false
	}

	want := make(map[int]bool, len(selectedSections))
	for _, idx := range selectedSections {
		want[idx] = true
	}

	var out []Assembled
	for _, ch := range assembled {
		if want[ch.SectionIndex] {
			out = append(out, ch)
		}
	}
	return out, true
}

// SelectRange filters assembled chapters by canonical chapter number,
// inclusive on both ends. end <= 0 means "to the last chapter".
func SelectRange(assembled []Assembled, start, end int) []Assembled {
	var out []Assembled
	for _, ch := range assembled {
		if ch.Number < start {
			continue
		}
		if end > 0 && ch.Number > end {
			continue
		}
		out = append(out, ch)
	}
	return out
}
