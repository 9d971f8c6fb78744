package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	apperrors "github.com/inkvoice/inkvoice/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func audioResponse(t *testing.T, pcm []byte) []byte {
	t.Helper()
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{
					"inlineData": map[string]any{
						"mimeType": "audio/L16;rate=24000",
						"data":     base64.StdEncoding.EncodeToString(pcm),
					},
				}},
			},
		}},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return data
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini("test-key", "Kore", "en-US",
		WithEndpoint(srv.URL+"/models/%s:generateContent"),
		WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return g
}

func TestGemini_Synthesize(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}

	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "Hello world.", req.Contents[0].Parts[0].Text)
		assert.Equal(t, []string{"AUDIO"}, req.GenerationConfig.ResponseModalities)
		assert.Equal(t, "Kore", req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)

		w.Write(audioResponse(t, pcm))
	})

	got, err := g.Synthesize(context.Background(), "Hello world.")
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestGemini_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32

	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write(audioResponse(t, []byte{9, 9}))
	})

	got, err := g.Synthesize(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGemini_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := g.Synthesize(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrProvider))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGemini_EmptyAudioIsError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"no audio here"}]}}]}`))
	})

	_, err := g.Synthesize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio")
}

type countingLimiter struct {
	waits atomic.Int32
	err   error
}

func (c *countingLimiter) Wait(context.Context) error {
	c.waits.Add(1)
	return c.err
}

func TestGemini_WaitsOnLimiterPerAttempt(t *testing.T) {
	var calls atomic.Int32
	limiter := &countingLimiter{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write(audioResponse(t, []byte{1}))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGemini("key", "Kore", "en-US",
		WithEndpoint(srv.URL+"/models/%s:generateContent"),
		WithHTTPClient(srv.Client()),
		WithLimiter(limiter))
	require.NoError(t, err)

	_, err = g.Synthesize(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, int32(2), limiter.waits.Load(), "retries must be paced too")
}

func TestGemini_LimiterErrorAborts(t *testing.T) {
	limiter := &countingLimiter{err: context.Canceled}

	g, err := NewGemini("key", "Kore", "en-US", WithLimiter(limiter))
	require.NoError(t, err)

	_, err = g.Synthesize(context.Background(), "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGemini_RequiresAPIKey(t *testing.T) {
	_, err := NewGemini("", "Kore", "en-US")
	assert.Error(t, err)
}

func TestNewGemini_DefaultsVoice(t *testing.T) {
	g, err := NewGemini("key", "", "en-US")
	require.NoError(t, err)
	assert.Equal(t, DefaultVoice, g.voice)
}
