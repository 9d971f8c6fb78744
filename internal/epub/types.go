// Package epub parses EPUB files into ordered content sections using the
// book's declared table of contents, with anchor-bounded extraction for
// files that contain more than one logical chapter.
package epub

// Section is a structurally detected content unit prior to front/back-matter
// classification. Index is 1-based and stable within one parse; it follows
// the document's structural order, not necessarily chapter order.
type Section struct {
	Index      int
	SourceName string
	Title      string
	WordCount  int

	// CleanText is the extracted text with headings included (for display
	// and word counting).
	CleanText string

	// NarrationText is the same span re-extracted with H1-H6 stripped, so
	// narration does not read out structural titles.
	NarrationText string

	// RawMarkup is the full markup of the source document this section was
	// extracted from.
	RawMarkup string
}

// Skip records a recoverable per-entry extraction skip. Skips are expected
// and common (missing anchors, empty transition pages); they never abort a
// parse.
type Skip struct {
	Label  string
	Href   string
	Reason string
}

// Book is the result of parsing an EPUB file.
type Book struct {
	Title       string
	Author      string
	Description string
	Sections    []Section
	Skips       []Skip

	CoverData []byte
	CoverExt  string
}
