package epub

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// chromeTags are markup subtrees that never contain narration content.
var chromeTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
}

// headingTags are structural titles, strippable for narration so the voice
// does not read out "Chapter 1" before every chapter.
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var (
	whitespaceRe      = regexp.MustCompile(`\s+`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([.,!?;:])`)
	sentenceSpacingRe = regexp.MustCompile(`([.!?])\s*([A-Z])`)
)

// CleanText extracts plain text from raw markup. Script/style/navigation
// chrome is dropped, whitespace runs collapse to single spaces, and spacing
// around punctuation is normalized. With excludeHeadings, H1-H6 subtrees are
// dropped as well.
func CleanText(raw string, excludeHeadings bool) string {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	collectText(root, &sb, excludeHeadings)
	return normalizeText(sb.String())
}

// extractFromAnchor returns the cleaned text between the element with id
// anchorID and the element carrying nextAnchorID, walking the anchor's
// following siblings. When the next anchor is nested inside a later sibling,
// that entire sibling is excluded. An empty nextAnchorID means "to end of
// document". The second return is false when the start anchor does not exist.
func extractFromAnchor(root *html.Node, anchorID, nextAnchorID string, excludeHeadings bool) (string, bool) {
	start := findByID(root, anchorID)
	if start == nil {
		return "", false
	}

	var sb strings.Builder
	collectText(start, &sb, excludeHeadings)

	for sib := start.NextSibling; sib != nil; sib = sib.NextSibling {
		if nextAnchorID != "" && sib.Type == html.ElementNode {
			if nodeID(sib) == nextAnchorID || findByID(sib, nextAnchorID) != nil {
				break
			}
		}
		collectText(sib, &sb, excludeHeadings)
	}

	return normalizeText(sb.String()), true
}

// collectText appends the text content of a subtree, one space between text
// nodes, skipping chrome and (optionally) heading subtrees.
func collectText(n *html.Node, sb *strings.Builder, excludeHeadings bool) {
	if n.Type == html.ElementNode {
		if chromeTags[n.Data] {
			return
		}
		if excludeHeadings && headingTags[n.Data] {
			return
		}
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			sb.WriteString(t)
			sb.WriteByte(' ')
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb, excludeHeadings)
	}
}

// findByID searches a subtree for the element with the given id attribute.
// The anchor may be nested arbitrarily deep inside other elements.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && nodeID(n) == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func nodeID(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "id" {
			return attr.Val
		}
	}
	return ""
}

// normalizeText collapses whitespace and fixes spacing around punctuation.
func normalizeText(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = sentenceSpacingRe.ReplaceAllString(s, "$1 $2")
	return s
}

// ExtractTitle pulls a display title out of raw markup: the first reasonable
// heading, else a humanized version of the file name.
func ExtractTitle(raw, fallbackName string) string {
	root, err := html.Parse(strings.NewReader(raw))
	if err == nil {
		for _, tag := range []string{"h1", "h2", "h3", "title"} {
			if n := findFirst(root, tag); n != nil {
				var sb strings.Builder
				collectText(n, &sb, false)
				title := normalizeText(sb.String())
				if title != "" && len(title) < 150 {
					return title
				}
			}
		}
	}
	return humanizeFilename(fallbackName)
}

// findFirst returns the first element with the given tag name, in document order.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// humanizeFilename turns "chapter_03.xhtml" into "Chapter 03".
func humanizeFilename(name string) string {
	name = strings.TrimSuffix(name, ".xhtml")
	name = strings.TrimSuffix(name, ".html")
	name = strings.TrimSuffix(name, ".htm")
	name = strings.ReplaceAll(name, "_", " ")

	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
