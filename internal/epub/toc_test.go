package epub

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenNavPoints_PreOrder(t *testing.T) {
	raw := `<?xml version="1.0"?>
	<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/">
	  <navMap>
	    <navPoint id="p1">
	      <navLabel><text>Part I</text></navLabel>
	      <content src="part1.xhtml"/>
	      <navPoint id="c1">
	        <navLabel><text>Chapter 1</text></navLabel>
	        <content src="part1.xhtml#ch1"/>
	      </navPoint>
	      <navPoint id="c2">
	        <navLabel><text>Chapter 2</text></navLabel>
	        <content src="part1.xhtml#ch2"/>
	      </navPoint>
	    </navPoint>
	    <navPoint id="p2">
	      <navLabel><text>Part II</text></navLabel>
	      <content src="part2.xhtml"/>
	    </navPoint>
	  </navMap>
	</ncx>`

	var toc ncx
	require.NoError(t, xml.Unmarshal([]byte(raw), &toc))

	entries := flattenNavPoints(toc.NavMap.NavPoints, 0)
	require.Len(t, entries, 4)

	assert.Equal(t, tocEntry{Label: "Part I", Href: "part1.xhtml"}, entries[0])
	assert.Equal(t, tocEntry{Label: "Chapter 1", Href: "part1.xhtml#ch1"}, entries[1])
	assert.Equal(t, tocEntry{Label: "Chapter 2", Href: "part1.xhtml#ch2"}, entries[2])
	assert.Equal(t, tocEntry{Label: "Part II", Href: "part2.xhtml"}, entries[3])
}

func TestFlattenNavPoints_SkipsEmptyHrefs(t *testing.T) {
	points := []navPoint{
		{Label: navLabel{Text: "No target"}, Content: navContent{Src: "  "}},
		{Label: navLabel{Text: "Real"}, Content: navContent{Src: "ch.xhtml"}},
	}

	entries := flattenNavPoints(points, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, "Real", entries[0].Label)
}

func TestFlattenNavPoints_DepthCap(t *testing.T) {
	// Build a chain deeper than the cap; everything past it is dropped.
	leaf := navPoint{Label: navLabel{Text: "deep"}, Content: navContent{Src: "deep.xhtml"}}
	chain := leaf
	for i := 0; i < maxOutlineDepth+10; i++ {
		chain = navPoint{
			Label:    navLabel{Text: "level"},
			Content:  navContent{Src: "level.xhtml"},
			Children: []navPoint{chain},
		}
	}

	entries := flattenNavPoints([]navPoint{chain}, 0)
	assert.Len(t, entries, maxOutlineDepth)
}

func TestSplitHref(t *testing.T) {
	tests := []struct {
		href   string
		doc    string
		anchor string
	}{
		{"text/ch02.xhtml#pgepubid00012", "text/ch02.xhtml", "pgepubid00012"},
		{"ch01.xhtml", "ch01.xhtml", ""},
		{"ch01.xhtml#", "ch01.xhtml", ""},
	}

	for _, tc := range tests {
		doc, anchor := splitHref(tc.href)
		assert.Equal(t, tc.doc, doc, tc.href)
		assert.Equal(t, tc.anchor, anchor, tc.href)
	}
}

func TestMatchDocument(t *testing.T) {
	names := []string{"OEBPS/text/ch01.xhtml", "OEBPS/text/ch02.xhtml"}

	tests := []struct {
		name  string
		ref   string
		want  string
		found bool
	}{
		{"exact", "OEBPS/text/ch01.xhtml", "OEBPS/text/ch01.xhtml", true},
		{"suffix", "text/ch02.xhtml", "OEBPS/text/ch02.xhtml", true},
		{"basename", "ch01.xhtml", "OEBPS/text/ch01.xhtml", true},
		{"missing", "ch99.xhtml", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := matchDocument(names, tc.ref)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
