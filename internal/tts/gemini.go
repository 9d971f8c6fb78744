package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/inkvoice/inkvoice/internal/errors"
)

const (
	geminiEndpointFmt = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	defaultModel      = "gemini-2.5-flash-preview-tts"

	// maxRetries covers transient transport failures only. Content-policy
	// rejections and other 4xx responses are never retried.
	maxRetries   = 2
	retryBackoff = 2 * time.Second
)

// GeminiOption configures a Gemini provider.
type GeminiOption func(*Gemini)

// WithModel overrides the TTS model ID.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		g.model = model
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) {
		g.httpClient = c
	}
}

// WithEndpoint overrides the API endpoint format string, mainly for tests.
// It must contain one %s verb for the model ID.
func WithEndpoint(endpointFmt string) GeminiOption {
	return func(g *Gemini) {
		g.endpoint = endpointFmt
	}
}

// WithLimiter paces requests through the given limiter, including retries.
func WithLimiter(l RequestLimiter) GeminiOption {
	return func(g *Gemini) {
		g.limiter = l
	}
}

// RequestLimiter gates outbound requests. *ratelimit.Limiter satisfies it.
type RequestLimiter interface {
	Wait(ctx context.Context) error
}

// Gemini implements Provider backed by the Gemini generateContent REST API
// in audio-response mode.
type Gemini struct {
	apiKey       string
	voice        string
	languageCode string
	model        string
	endpoint     string
	httpClient   *http.Client
	limiter      RequestLimiter
}

// NewGemini creates a Gemini provider. apiKey must be non-empty; an empty
// voice falls back to the default.
func NewGemini(apiKey, voice, languageCode string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, apperrors.Validation("gemini api key required")
	}
	if voice == "" {
		voice = DefaultVoice
	}
	g := &Gemini{
		apiKey:       apiKey,
		voice:        voice,
		languageCode: languageCode,
		model:        defaultModel,
		endpoint:     geminiEndpointFmt,
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// ---- generateContent wire types ----

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"` // base64-encoded PCM
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig  voiceConfig `json:"voiceConfig"`
	LanguageCode string      `json:"languageCode,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Synthesize renders one batch of text to raw PCM. Transient failures
// (transport errors, 429, 5xx) are retried a couple of times; everything else
// fails immediately.
func (g *Gemini) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		audio, retryable, err := g.generate(ctx, text)
		if err == nil {
			return audio, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// generate performs one API call. The second return reports whether the
// failure is worth retrying.
func (g *Gemini) generate(ctx context.Context, text string) ([]byte, bool, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: g.voice},
				},
				LanguageCode: g.languageCode,
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, apperrors.Internal("marshal tts request").WithCause(err)
	}

	url := fmt.Sprintf(g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, apperrors.Internal("build tts request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, apperrors.Provider("tts request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, apperrors.Provider("read tts response").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, apperrors.Provider(fmt.Sprintf("tts request returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, false, apperrors.Provider("decode tts response").WithCause(err)
	}
	if decoded.Error != nil {
		return nil, false, apperrors.Provider(fmt.Sprintf("tts api error %s: %s", decoded.Error.Status, decoded.Error.Message))
	}

	audio := collectAudio(&decoded)
	if len(audio) == 0 {
		return nil, false, apperrors.Provider("tts response contained no audio")
	}
	return audio, false, nil
}

// collectAudio concatenates the base64 audio parts of the first candidate.
func collectAudio(resp *generateResponse) []byte {
	if len(resp.Candidates) == 0 {
		return nil
	}

	var audio []byte
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			continue
		}
		audio = append(audio, data...)
	}
	return audio
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
