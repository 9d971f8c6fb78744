package epub

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// minSectionWords is the noise floor: extractions shorter than this are
// transition pages or decorative markup, not content.
const minSectionWords = 10

// skipEntryPatterns match outline labels that are never narration content.
// These are dropped before section building; the classifier applies a wider
// net later for canonical chapter numbering.
var skipEntryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)table\s*of\s*contents`),
	regexp.MustCompile(`(?i)^contents$`),
	regexp.MustCompile(`(?i)^toc$`),
	regexp.MustCompile(`(?i)copyright`),
	regexp.MustCompile(`(?i)^cover$`),
	regexp.MustCompile(`(?i)full\s*project\s*gutenberg\s*license`),
	regexp.MustCompile(`(?i)^wrap\d+$`),
	regexp.MustCompile(`(?i)transcriber'?s?\s*note`),
}

func shouldSkipEntry(label string) bool {
	label = strings.TrimSpace(label)
	for _, p := range skipEntryPatterns {
		if p.MatchString(label) {
			return true
		}
	}
	return false
}

// document is a spine document with its markup parsed once and shared across
// all outline entries that reference it. The parse tree is read-only;
// extraction walks it without mutating.
type document struct {
	name string
	raw  string
	root *html.Node
}

// Parse reads an EPUB file and builds its ordered section list.
//
// Sections come from the table of contents when one is present, which detects
// multiple logical chapters inside a single document (common in Project
// Gutenberg books). Books without a usable outline fall back to one section
// per spine document.
func Parse(epubPath string) (*Book, error) {
	rc, err := epub.OpenReader(epubPath)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	rf := rc.Rootfiles[0]

	book := &Book{
		Title:       strings.TrimSpace(rf.Title),
		Author:      strings.TrimSpace(rf.Creator),
		Description: cleanDescription(rf.Description),
	}
	if book.Title == "" {
		book.Title = strings.TrimSuffix(filepath.Base(epubPath), filepath.Ext(epubPath))
	}
	if book.Author == "" {
		book.Author = "Unknown Author"
	}

	book.CoverData, book.CoverExt = findCover(rf)

	docs, order := loadDocuments(rf)

	entries := readTOC(epubPath, rf)
	sections, skips := sectionsFromTOC(entries, docs, order)

	// Structural fallback: no outline, or an outline that produced nothing.
	if len(sections) == 0 {
		sections = sectionsFromSpine(docs, order)
	}

	book.Sections = sections
	book.Skips = skips
	return book, nil
}

// loadDocuments reads every HTML spine document, keyed by manifest href, and
// returns the spine order alongside.
func loadDocuments(rf *epub.Rootfile) (map[string]*document, []string) {
	docs := make(map[string]*document)
	var order []string

	for _, ref := range rf.Spine.Itemrefs {
		if ref.Item == nil || !strings.Contains(ref.Item.MediaType, "html") {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		raw := string(data)
		root, err := html.Parse(strings.NewReader(raw))
		if err != nil {
			continue
		}

		name := ref.Item.HREF
		if _, dup := docs[name]; dup {
			continue
		}
		docs[name] = &document{name: name, raw: raw, root: root}
		order = append(order, name)
	}

	return docs, order
}

// sectionsFromTOC builds one section per surviving outline entry. The
// boundary for an anchored entry is the next outline anchor in the same
// document, computed over the full entry list so skipped entries still bound
// their neighbors.
func sectionsFromTOC(entries []tocEntry, docs map[string]*document, order []string) ([]Section, []Skip) {
	var sections []Section
	var skips []Skip

	type fileEntry struct {
		tocIdx int
		anchor string
	}
	entriesByFile := make(map[string][]fileEntry)
	for i, e := range entries {
		docRef, anchor := splitHref(e.Href)
		docRef = unescapeRef(docRef)
		entriesByFile[docRef] = append(entriesByFile[docRef], fileEntry{tocIdx: i, anchor: anchor})
	}

	secIdx := 0
	for i, e := range entries {
		if shouldSkipEntry(e.Label) {
			continue
		}

		docRef, anchor := splitHref(e.Href)
		docRef = unescapeRef(docRef)

		name, ok := matchDocument(order, docRef)
		if !ok {
			skips = append(skips, Skip{Label: e.Label, Href: e.Href, Reason: "document not found"})
			continue
		}
		doc := docs[name]

		// Next anchor in the same file bounds this section's extraction.
		nextAnchor := ""
		for j, fe := range entriesByFile[docRef] {
			if fe.tocIdx == i && j+1 < len(entriesByFile[docRef]) {
				nextAnchor = entriesByFile[docRef][j+1].anchor
				break
			}
		}

		var text, narration string
		if anchor != "" {
			var found bool
			text, found = extractFromAnchor(doc.root, anchor, nextAnchor, false)
			if !found {
				skips = append(skips, Skip{Label: e.Label, Href: e.Href, Reason: "anchor not found"})
				continue
			}
			narration, _ = extractFromAnchor(doc.root, anchor, nextAnchor, true)
		} else {
			text = CleanText(doc.raw, false)
			narration = CleanText(doc.raw, true)
		}

		wordCount := len(strings.Fields(text))
		if wordCount < minSectionWords {
			skips = append(skips, Skip{Label: e.Label, Href: e.Href, Reason: "below minimum word count"})
			continue
		}

		secIdx++
		sections = append(sections, Section{
			Index:         secIdx,
			SourceName:    path.Base(name),
			Title:         e.Label,
			WordCount:     wordCount,
			CleanText:     text,
			NarrationText: narration,
			RawMarkup:     doc.raw,
		})
	}

	return sections, skips
}

// sectionsFromSpine is the outline-less fallback: one section per document,
// titled from the first heading.
func sectionsFromSpine(docs map[string]*document, order []string) []Section {
	var sections []Section

	for _, name := range order {
		doc := docs[name]
		text := CleanText(doc.raw, false)

		base := path.Base(name)
		sections = append(sections, Section{
			Index:         len(sections) + 1,
			SourceName:    base,
			Title:         ExtractTitle(doc.raw, base),
			WordCount:     len(strings.Fields(text)),
			CleanText:     text,
			NarrationText: CleanText(doc.raw, true),
			RawMarkup:     doc.raw,
		})
	}

	return sections
}

// findCover locates a cover image in the manifest: any image whose id or href
// mentions "cover".
func findCover(rf *epub.Rootfile) ([]byte, string) {
	for i := range rf.Manifest.Items {
		item := &rf.Manifest.Items[i]
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		idAndHref := strings.ToLower(item.ID + " " + item.HREF)
		if !strings.Contains(idAndHref, "cover") {
			continue
		}

		r, err := item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil || len(data) == 0 {
			continue
		}

		ext := "jpg"
		if strings.Contains(strings.ToLower(item.HREF), ".png") {
			ext = "png"
		}
		return data, ext
	}
	return nil, ""
}

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// cleanDescription normalizes a book description to plain prose. EPUB
// metadata descriptions frequently carry embedded HTML.
func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// unescapeRef URL-decodes an outline document reference ("my%20book.xhtml").
func unescapeRef(ref string) string {
	if decoded, err := url.PathUnescape(ref); err == nil {
		return decoded
	}
	return ref
}
