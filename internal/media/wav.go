// Package media handles raw audio packaging: WAV encoding for the provider's
// fixed PCM format, duration math, and transcoding to a delivery format.
package media

import (
	"encoding/binary"
	"fmt"
	"os"
)

// The synthesis provider returns a fixed sample format: mono, 16-bit PCM at
// 24 kHz. All duration math assumes it.
const (
	SampleRate     = 24000
	BytesPerSample = 2
	NumChannels    = 1
)

// PCMDuration returns the play time in seconds of raw PCM in the provider's
// sample format.
func PCMDuration(pcm []byte) float64 {
	return float64(len(pcm)) / float64(SampleRate*BytesPerSample*NumChannels)
}

const wavHeaderSize = 44

// WriteWAV writes raw PCM to path as a standard RIFF/WAVE file.
func WriteWAV(path string, pcm []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	dataSize := uint32(len(pcm))
	byteRate := uint32(SampleRate * NumChannels * BytesPerSample)
	blockAlign := uint16(NumChannels * BytesPerSample)

	header := make([]byte, 0, wavHeaderSize)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, 36+dataSize)
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16) // PCM fmt chunk size
	header = binary.LittleEndian.AppendUint16(header, 1)  // PCM format
	header = binary.LittleEndian.AppendUint16(header, NumChannels)
	header = binary.LittleEndian.AppendUint32(header, SampleRate)
	header = binary.LittleEndian.AppendUint32(header, byteRate)
	header = binary.LittleEndian.AppendUint16(header, blockAlign)
	header = binary.LittleEndian.AppendUint16(header, 8*BytesPerSample)
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, dataSize)

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := f.Write(pcm); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

// WAVDuration reads a WAV file's header and returns its exact play time in
// seconds, assuming the provider's sample format.
func WAVDuration(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.Size() < wavHeaderSize {
		return 0, fmt.Errorf("wav file too small: %d bytes", info.Size())
	}
	return float64(info.Size()-wavHeaderSize) / float64(SampleRate*BytesPerSample*NumChannels), nil
}
