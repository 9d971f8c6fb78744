package chapters

import (
	"strings"
	"testing"

	"github.com/inkvoice/inkvoice/internal/epub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longText(word string) string {
	return strings.TrimSpace(strings.Repeat(word+" ", 40))
}

func TestAssemble_NumbersCanonicalSections(t *testing.T) {
	sections := []epub.Section{
		{Index: 1, Title: "Cover", NarrationText: longText("cover")},
		{Index: 2, Title: "Chapter 1", NarrationText: longText("one")},
		{Index: 3, Title: "Chapter 2", NarrationText: longText("two")},
		{Index: 4, Title: "Chapter 3", NarrationText: longText("three")},
	}

	// Classifier already excluded section 1 and 3.
	got := Assemble(sections, []int{2, 4}, AssembleOptions{})
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, "Chapter 1", got[0].Title)
	assert.Equal(t, 2, got[0].SectionIndex)

	assert.Equal(t, 2, got[1].Number)
	assert.Equal(t, "Chapter 3", got[1].Title)
	assert.Equal(t, 4, got[1].SectionIndex)
}

func TestAssemble_DropsNearEmptyAfterNumbering(t *testing.T) {
	sections := []epub.Section{
		{Index: 1, Title: "Chapter 1", NarrationText: longText("one")},
		{Index: 2, Title: "Chapter 2", NarrationText: "too short"},
		{Index: 3, Title: "Chapter 3", NarrationText: longText("three")},
	}

	got := Assemble(sections, []int{1, 2, 3}, AssembleOptions{})
	require.Len(t, got, 2)

	// The dropped chapter keeps its number reserved.
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 3, got[1].Number)
}

func TestAssemble_IncludeHeadings(t *testing.T) {
	sections := []epub.Section{
		{
			Index:         1,
			Title:         "Chapter 1",
			CleanText:     "Chapter 1 " + longText("one"),
			NarrationText: longText("one"),
		},
	}

	stripped := Assemble(sections, []int{1}, AssembleOptions{})
	require.Len(t, stripped, 1)
	assert.NotContains(t, stripped[0].Text, "Chapter 1")

	kept := Assemble(sections, []int{1}, AssembleOptions{IncludeHeadings: true})
	require.Len(t, kept, 1)
	assert.True(t, strings.HasPrefix(kept[0].Text, "Chapter 1"))
}

func TestAssemble_Idempotent(t *testing.T) {
	sections := []epub.Section{
		{Index: 1, Title: "Chapter 1", NarrationText: longText("one")},
		{Index: 2, Title: "Chapter 2", NarrationText: longText("two")},
	}

	first := Assemble(sections, []int{1, 2}, AssembleOptions{})
	second := Assemble(sections, []int{1, 2}, AssembleOptions{})
	assert.Equal(t, first, second)
}
