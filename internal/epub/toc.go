package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// maxOutlineDepth caps NCX traversal. NCX is tree-structured by format, but a
// hostile or broken file must not walk us forever.
const maxOutlineDepth = 64

// NCX XML structures for parsing toc.ncx.
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID       string     `xml:"id,attr"`
	Label    navLabel   `xml:"navLabel"`
	Content  navContent `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// tocEntry is one flattened outline entry: a label plus the href it targets.
// Href may carry an in-document anchor ("file.xhtml#ch3").
type tocEntry struct {
	Label string
	Href  string
}

// readTOC extracts and flattens the table of contents of an EPUB.
// Returns nil (no error) when the book has no usable NCX; the caller falls
// back to one section per spine document.
func readTOC(filename string, book *epub.Rootfile) []tocEntry {
	data, err := findAndReadNCX(filename, book)
	if err != nil {
		return nil
	}

	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return nil
	}

	return flattenNavPoints(toc.NavMap.NavPoints, 0)
}

// flattenNavPoints flattens nested navPoints in pre-order: each parent is
// emitted before its children. Branches deeper than maxOutlineDepth are
// dropped rather than followed.
func flattenNavPoints(points []navPoint, depth int) []tocEntry {
	if depth >= maxOutlineDepth {
		return nil
	}

	var entries []tocEntry
	for _, np := range points {
		label := strings.TrimSpace(np.Label.Text)
		href := strings.TrimSpace(np.Content.Src)
		if href != "" {
			entries = append(entries, tocEntry{Label: label, Href: href})
		}
		if len(np.Children) > 0 {
			entries = append(entries, flattenNavPoints(np.Children, depth+1)...)
		}
	}
	return entries
}

// findAndReadNCX locates the NCX document, first through the manifest
// (media-type application/x-dtbncx+xml), then by scanning the archive for any
// .ncx member.
func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	// Preferred: the manifest declares the NCX.
	for i := range book.Manifest.Items {
		item := &book.Manifest.Items[i]
		if item.MediaType == "application/x-dtbncx+xml" {
			r, err := item.Open()
			if err != nil {
				break
			}
			defer r.Close()
			return io.ReadAll(r)
		}
	}

	// Fallback: scan the zip for anything named *.ncx.
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("no NCX file found in EPUB")
}

// splitHref separates an outline href into its document path and optional
// anchor: "text/ch02.xhtml#pgepubid00012" → ("text/ch02.xhtml", "pgepubid00012").
func splitHref(href string) (doc, anchor string) {
	if idx := strings.Index(href, "#"); idx != -1 {
		return href[:idx], href[idx+1:]
	}
	return href, ""
}

// matchDocument finds the document matching an outline reference. Outline
// hrefs and manifest hrefs frequently disagree on directory prefixes, so exact
// match is tried first, then suffix and basename matches.
func matchDocument(names []string, ref string) (string, bool) {
	for _, name := range names {
		if name == ref {
			return name, true
		}
	}
	for _, name := range names {
		if strings.HasSuffix(name, "/"+ref) || strings.HasSuffix(ref, path.Base(name)) {
			return name, true
		}
	}
	return "", false
}
