package epub

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, raw string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return root
}

func TestCleanText_DropsChrome(t *testing.T) {
	raw := `<html><head><style>p { color: red }</style></head><body>
	<nav>skip this menu</nav>
	<p>Keep this sentence.</p>
	<script>var x = 1;</script>
	<footer>page 12</footer>
	</body></html>`

	got := CleanText(raw, false)
	assert.Equal(t, "Keep this sentence.", got)
}

func TestCleanText_ExcludeHeadings(t *testing.T) {
	raw := `<html><body><h1>Chapter 1</h1><p>It was a dark and stormy night.</p></body></html>`

	assert.Equal(t, "Chapter 1 It was a dark and stormy night.", CleanText(raw, false))
	assert.Equal(t, "It was a dark and stormy night.", CleanText(raw, true))
}

func TestCleanText_NormalizesWhitespaceAndPunctuation(t *testing.T) {
	raw := `<html><body><p>Hello   ,
	world .</p><p>next sentence.And another.</p></body></html>`

	got := CleanText(raw, false)
	assert.NotContains(t, got, "  ")
	assert.Contains(t, got, "Hello, world.")
	// Missing space after sentence end is repaired.
	assert.Contains(t, got, "sentence. And")
}

func TestExtractFromAnchor_BoundedByNextAnchor(t *testing.T) {
	raw := `<html><body>
	<div id="ch1"><h2>One</h2></div>
	<p>First chapter text.</p>
	<div id="ch2"><h2>Two</h2></div>
	<p>Second chapter text.</p>
	</body></html>`
	root := parseDoc(t, raw)

	got, ok := extractFromAnchor(root, "ch1", "ch2", false)
	require.True(t, ok)
	assert.Contains(t, got, "First chapter text.")
	assert.NotContains(t, got, "Second chapter text.")

	got, ok = extractFromAnchor(root, "ch2", "", false)
	require.True(t, ok)
	assert.Contains(t, got, "Second chapter text.")
	assert.NotContains(t, got, "First chapter text.")
}

func TestExtractFromAnchor_NextAnchorNestedInSibling(t *testing.T) {
	raw := `<html><body>
	<h2 id="ch1">One</h2>
	<p>Chapter one body.</p>
	<div><h2 id="ch2">Two</h2><p>Chapter two body.</p></div>
	</body></html>`
	root := parseDoc(t, raw)

	got, ok := extractFromAnchor(root, "ch1", "ch2", false)
	require.True(t, ok)
	assert.Contains(t, got, "Chapter one body.")
	// The whole sibling containing the next anchor is excluded.
	assert.NotContains(t, got, "Chapter two body.")
}

func TestExtractFromAnchor_MissingAnchor(t *testing.T) {
	root := parseDoc(t, `<html><body><p>text</p></body></html>`)

	_, ok := extractFromAnchor(root, "nope", "", false)
	assert.False(t, ok)
}

func TestExtractFromAnchor_ExcludeHeadings(t *testing.T) {
	raw := `<html><body>
	<h2 id="ch1">Chapter One Title</h2>
	<p>Body text here.</p>
	</body></html>`
	root := parseDoc(t, raw)

	got, ok := extractFromAnchor(root, "ch1", "", true)
	require.True(t, ok)
	assert.Equal(t, "Body text here.", got)
}

func TestExtractTitle(t *testing.T) {
	t.Run("from heading", func(t *testing.T) {
		raw := `<html><body><h1>The Adventure Begins</h1><p>text</p></body></html>`
		assert.Equal(t, "The Adventure Begins", ExtractTitle(raw, "ch01.xhtml"))
	})

	t.Run("oversized heading falls through", func(t *testing.T) {
		raw := `<html><body><h1>` + strings.Repeat("long ", 40) + `</h1></body></html>`
		assert.Equal(t, "Ch01", ExtractTitle(raw, "ch01.xhtml"))
	})

	t.Run("fallback humanizes filename", func(t *testing.T) {
		raw := `<html><body><p>no headings</p></body></html>`
		assert.Equal(t, "Chapter 03", ExtractTitle(raw, "chapter_03.xhtml"))
	})
}

func TestHumanizeFilename(t *testing.T) {
	assert.Equal(t, "Chapter 03", humanizeFilename("chapter_03.xhtml"))
	assert.Equal(t, "About The Author", humanizeFilename("about_the_author.html"))
	assert.Equal(t, "Intro", humanizeFilename("intro.htm"))
}
