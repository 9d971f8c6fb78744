package media

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCMDuration(t *testing.T) {
	// One second of mono 16-bit 24kHz audio is 48000 bytes.
	assert.Equal(t, 1.0, PCMDuration(make([]byte, 48000)))
	assert.Equal(t, 0.5, PCMDuration(make([]byte, 24000)))
	assert.Equal(t, 0.0, PCMDuration(nil))
}

func TestWriteWAV_HeaderAndRoundTrip(t *testing.T) {
	pcm := make([]byte, 48000) // 1 second
	for i := range pcm {
		pcm[i] = byte(i)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, WriteWAV(path, pcm))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, wavHeaderSize+len(pcm))

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))      // mono
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(data[24:28])) // sample rate
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, pcm, data[wavHeaderSize:])

	dur, err := WAVDuration(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, dur)
}

func TestWAVDuration_TooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	_, err := WAVDuration(path)
	assert.Error(t, err)
}

func TestWAVDuration_MissingFile(t *testing.T) {
	_, err := WAVDuration(filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}
