package media

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	apperrors "github.com/inkvoice/inkvoice/internal/errors"
)

// Transcoder converts raw WAV artifacts to MP3 through an external ffmpeg
// binary. Transcoding is best-effort: when it fails the WAV is kept so the
// chapter's audio is never lost.
type Transcoder struct {
	ffmpegPath string
	logger     *slog.Logger
}

// NewTranscoder resolves the ffmpeg binary, from the explicit path when
// given, else by PATH lookup. A missing binary is not an error here;
// Available reports it and ToMP3 fails with a typed error.
func NewTranscoder(logger *slog.Logger, ffmpegPath string) *Transcoder {
	if ffmpegPath == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			logger.Warn("ffmpeg not found, chapters will be kept as WAV")
			path = ""
		}
		ffmpegPath = path
	}
	return &Transcoder{ffmpegPath: ffmpegPath, logger: logger}
}

// NewDisabledTranscoder returns a transcoder that always keeps WAV output.
func NewDisabledTranscoder(logger *slog.Logger) *Transcoder {
	return &Transcoder{logger: logger}
}

// Available reports whether an ffmpeg binary was found.
func (t *Transcoder) Available() bool {
	return t.ffmpegPath != ""
}

// ToMP3 transcodes wavPath into mp3Path at 192 kbps and removes the WAV on
// success. On any failure the WAV is left in place and a transcode error is
// returned; the caller records the WAV as the chapter's artifact instead.
func (t *Transcoder) ToMP3(ctx context.Context, wavPath, mp3Path string) error {
	if t.ffmpegPath == "" {
		return apperrors.Transcode("ffmpeg not available")
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y", "-i", wavPath,
		"-acodec", "libmp3lame", "-ab", "192k",
		"-ar", "24000", "-ac", "1",
		mp3Path,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// A partial MP3 from a failed run is garbage, drop it.
		os.Remove(mp3Path)
		t.logger.Warn("transcode failed, keeping WAV", "wav", wavPath, "error", err)
		return apperrors.Transcode(lastLine(stderr.String())).WithCause(err)
	}

	if err := os.Remove(wavPath); err != nil {
		t.logger.Warn("could not remove WAV after transcode", "wav", wavPath, "error", err)
	}
	return nil
}

// lastLine extracts the final non-empty line of ffmpeg stderr, which is where
// ffmpeg puts the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "transcode failed"
}
