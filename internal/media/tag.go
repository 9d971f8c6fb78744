package media

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/inkvoice/inkvoice/internal/errors"
)

// Tag holds the metadata written into a chapter's MP3 so players show the
// book and chapter instead of a bare filename.
type Tag struct {
	Title      string // chapter title
	Album      string // book title
	Artist     string // author
	Narrator   string
	Track      int
	TrackTotal int
	Genre      string
}

const id3HeaderSize = 10

// TagMP3 rewrites the file at path with an ID3v2.4 tag prepended. Any
// existing leading tag is replaced, not stacked. The rewrite is atomic.
func TagMP3(path string, tag Tag) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Internal("read audio for tagging").WithCause(err)
	}
	data = data[existingTagSize(data):]

	out := append(renderTag(tag), data...)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tag-*")
	if err != nil {
		return apperrors.Internal("create temp file for tagging").WithCause(err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.Internal("write tagged audio").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.Internal("close tagged audio").WithCause(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.Internal("replace audio with tagged copy").WithCause(err)
	}
	return nil
}

// existingTagSize returns the byte length of a leading ID3v2 tag, or 0.
func existingTagSize(data []byte) int {
	if len(data) < id3HeaderSize || string(data[:3]) != "ID3" {
		return 0
	}
	size := decodeSynchsafe(data[6:10])
	if id3HeaderSize+size > len(data) {
		return 0
	}
	return id3HeaderSize + size
}

// renderTag builds a complete ID3v2.4 tag.
func renderTag(tag Tag) []byte {
	var frames []byte
	frames = append(frames, textFrame("TIT2", tag.Title)...)
	frames = append(frames, textFrame("TALB", tag.Album)...)
	frames = append(frames, textFrame("TPE1", tag.Artist)...)
	frames = append(frames, textFrame("TCOM", tag.Narrator)...)
	frames = append(frames, textFrame("TCON", tag.Genre)...)
	if tag.Track > 0 {
		track := fmt.Sprintf("%d", tag.Track)
		if tag.TrackTotal > 0 {
			track = fmt.Sprintf("%d/%d", tag.Track, tag.TrackTotal)
		}
		frames = append(frames, textFrame("TRCK", track)...)
	}

	header := make([]byte, id3HeaderSize)
	copy(header, "ID3")
	header[3] = 4 // v2.4.0
	copy(header[6:10], encodeSynchsafe(len(frames)))
	return append(header, frames...)
}

// textFrame builds one UTF-8 text information frame. Empty values render
// nothing; ID3 forbids empty text frames.
func textFrame(id, value string) []byte {
	if value == "" {
		return nil
	}
	body := append([]byte{0x03}, []byte(value)...) // 0x03 = UTF-8

	frame := make([]byte, 0, id3HeaderSize+len(body))
	frame = append(frame, id...)
	frame = append(frame, encodeSynchsafe(len(body))...)
	frame = append(frame, 0x00, 0x00) // no frame flags
	return append(frame, body...)
}

// encodeSynchsafe packs an int into four 7-bit bytes, high bit clear.
func encodeSynchsafe(n int) []byte {
	return []byte{
		byte(n >> 21 & 0x7F),
		byte(n >> 14 & 0x7F),
		byte(n >> 7 & 0x7F),
		byte(n & 0x7F),
	}
}

func decodeSynchsafe(b []byte) int {
	return int(b[0]&0x7F)<<21 | int(b[1]&0x7F)<<14 | int(b[2]&0x7F)<<7 | int(b[3]&0x7F)
}
