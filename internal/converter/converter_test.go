package converter

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/inkvoice/inkvoice/internal/errors"
	"github.com/inkvoice/inkvoice/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns one second of PCM per call.
type fakeProvider struct {
	failOnText string // fail any call whose text contains this
}

func (f *fakeProvider) Synthesize(_ context.Context, text string) ([]byte, error) {
	if f.failOnText != "" && strings.Contains(text, f.failOnText) {
		return nil, apperrors.Provider("synthetic failure")
	}
	return make([]byte, 48000), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chapterWords(word string) string {
	return strings.TrimSpace(strings.Repeat(word+" word filler text keeps going onward. ", 25))
}

// writeTestEPUB builds a minimal two-chapter EPUB: one spine document, two
// chapters split by outline anchors, plus a copyright page the classifier
// must drop.
func writeTestEPUB(t *testing.T) string {
	t.Helper()

	bodyHTML := fmt.Sprintf(`<html><body>
<p id="copy">Copyright 2026 by nobody in particular.</p>
<h2 id="ch1">Chapter 1</h2>
<p>%s</p>
<h2 id="ch2">Chapter 2</h2>
<p>%s</p>
</body></html>`, chapterWords("alpha"), chapterWords("beta"))

	files := map[string]string{
		"mimetype": "application/epub+zip",
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Test Book</dc:title>
    <dc:creator>Test Author</dc:creator>
    <dc:description>A book for testing.</dc:description>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="book" href="text/book.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="book"/>
  </spine>
</package>`,
		"OEBPS/toc.ncx": `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="n0"><navLabel><text>Copyright</text></navLabel><content src="text/book.xhtml#copy"/></navPoint>
    <navPoint id="n1"><navLabel><text>Chapter 1</text></navLabel><content src="text/book.xhtml#ch1"/></navPoint>
    <navPoint id="n2"><navLabel><text>Chapter 2</text></navLabel><content src="text/book.xhtml#ch2"/></navPoint>
  </navMap>
</ncx>`,
		"OEBPS/text/book.xhtml": bodyHTML,
	}

	path := filepath.Join(t.TempDir(), "test-book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range []string{"mimetype", "META-INF/container.xml", "OEBPS/content.opf", "OEBPS/toc.ncx", "OEBPS/text/book.xhtml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func newTestConverter(provider *fakeProvider) *Converter {
	return New(provider, media.NewTranscoder(discardLogger(), ""), discardLogger())
}

func TestConvert_EndToEnd(t *testing.T) {
	epubPath := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")

	c := newTestConverter(&fakeProvider{})
	result, err := c.Convert(context.Background(), Options{
		EPUBPath:  epubPath,
		OutputDir: outDir,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Generated)
	assert.Zero(t, result.Failed)

	meta := result.Metadata
	assert.Equal(t, "the-test-book", meta.ID)
	assert.Equal(t, "The Test Book", meta.Title)
	assert.Equal(t, "Test Author", meta.Author)
	assert.Equal(t, 2, meta.TotalChapters)

	// Copyright page never became a chapter.
	for _, ch := range meta.Chapters {
		assert.NotContains(t, strings.ToLower(ch.Title), "copyright")
	}

	// Artifacts on disk: audio (WAV since ffmpeg may be absent, MP3 when it
	// is present), transcript, metadata.
	ch1 := meta.ChapterByNumber(1)
	require.NotNil(t, ch1)
	assert.NotEmpty(t, ch1.AudioFile)
	assert.Equal(t, "chapter-01-transcript.json", ch1.TranscriptFile)
	assert.Greater(t, ch1.DurationSeconds, 0.0)

	_, err = os.Stat(filepath.Join(outDir, ch1.AudioFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "metadata.json"))
	assert.NoError(t, err)
}

func TestConvert_DryRun(t *testing.T) {
	epubPath := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")

	c := newTestConverter(&fakeProvider{})
	result, err := c.Convert(context.Background(), Options{
		EPUBPath:  epubPath,
		OutputDir: outDir,
		DryRun:    true,
	})
	require.NoError(t, err)

	require.Len(t, result.Chapters, 2)
	assert.Equal(t, StatePending, result.Chapters[0].State)

	// Nothing synthesized, no metadata written.
	_, err = os.Stat(filepath.Join(outDir, "metadata.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestConvert_FailedChapterDoesNotAbortRun(t *testing.T) {
	epubPath := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")

	// Chapter 1's text is all "alpha" words; fail it and let chapter 2 pass.
	c := newTestConverter(&fakeProvider{failOnText: "alpha"})
	result, err := c.Convert(context.Background(), Options{
		EPUBPath:  epubPath,
		OutputDir: outDir,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, result.Failed)

	// Chapter 2 completed and is recorded; chapter 1 stays unbound.
	assert.Empty(t, result.Metadata.ChapterByNumber(1).AudioFile)
	assert.NotEmpty(t, result.Metadata.ChapterByNumber(2).AudioFile)
}

func TestConvert_SkipExisting(t *testing.T) {
	epubPath := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")
	c := newTestConverter(&fakeProvider{})

	// First run generates everything.
	first, err := c.Convert(context.Background(), Options{EPUBPath: epubPath, OutputDir: outDir})
	require.NoError(t, err)
	require.Equal(t, 2, first.Generated)

	// Second run with skip-existing touches nothing.
	second, err := c.Convert(context.Background(), Options{
		EPUBPath:     epubPath,
		OutputDir:    outDir,
		SkipExisting: true,
	})
	require.NoError(t, err)
	assert.Zero(t, second.Generated)
	assert.Equal(t, 2, second.Skipped)

	// Durations survived from the first run's metadata.
	assert.Greater(t, second.Metadata.ChapterByNumber(1).DurationSeconds, 0.0)

	// Force overrides skip-existing.
	third, err := c.Convert(context.Background(), Options{
		EPUBPath:     epubPath,
		OutputDir:    outDir,
		SkipExisting: true,
		Force:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, third.Generated)
}

func TestConvert_MergePreservesUnselectedBindings(t *testing.T) {
	epubPath := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")
	c := newTestConverter(&fakeProvider{})

	// Generate both chapters.
	_, err := c.Convert(context.Background(), Options{EPUBPath: epubPath, OutputDir: outDir})
	require.NoError(t, err)

	// Re-run selecting only chapter 2 (section 2). Chapter 1's binding must
	// survive the merge even though this run never touched it.
	result, err := c.Convert(context.Background(), Options{
		EPUBPath:     epubPath,
		OutputDir:    outDir,
		Selection:    "2",
		SkipExisting: true,
	})
	require.NoError(t, err)

	ch1 := result.Metadata.ChapterByNumber(1)
	require.NotNil(t, ch1)
	assert.NotEmpty(t, ch1.AudioFile)
}

func TestConvert_ChapterRange(t *testing.T) {
	epubPath := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")
	c := newTestConverter(&fakeProvider{})

	result, err := c.Convert(context.Background(), Options{
		EPUBPath:     epubPath,
		OutputDir:    outDir,
		StartChapter: 2,
	})
	require.NoError(t, err)

	require.Len(t, result.Chapters, 1)
	assert.Equal(t, 2, result.Chapters[0].Number)
}

func TestConvert_ParallelChapters(t *testing.T) {
	epubPath := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")
	c := newTestConverter(&fakeProvider{})

	result, err := c.Convert(context.Background(), Options{
		EPUBPath:      epubPath,
		OutputDir:     outDir,
		MaxConcurrent: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Generated)
	// Results come back in chapter order regardless of completion order.
	require.Len(t, result.Chapters, 2)
	assert.Equal(t, 1, result.Chapters[0].Number)
	assert.Equal(t, 2, result.Chapters[1].Number)
}
