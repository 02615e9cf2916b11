package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.elevenlabs.io"
	defaultModelID     = "eleven_multilingual_v2"
	defaultHTTPTimeout = 120 * time.Second
)

// ElevenLabs synthesizes narration through the ElevenLabs speech API.
type ElevenLabs struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
}

// ElevenLabsOption customizes the ElevenLabs client.
type ElevenLabsOption func(*ElevenLabs)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ElevenLabsOption {
	return func(c *ElevenLabs) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) ElevenLabsOption {
	return func(c *ElevenLabs) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModelID selects a non-default speech model.
func WithModelID(model string) ElevenLabsOption {
	return func(c *ElevenLabs) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.modelID = model
		}
	}
}

// NewElevenLabs constructs an ElevenLabs API client.
func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) *ElevenLabs {
	client := &ElevenLabs{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		modelID:    defaultModelID,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *ElevenLabs) Name() string { return "elevenlabs" }

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Speed float64 `json:"speed,omitempty"`
}

// Synthesize posts the narration text and streams the returned audio to the
// request's output path.
func (c *ElevenLabs) Synthesize(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("narration text is empty")
	}
	if req.OutputPath == "" {
		return errors.New("output path required")
	}
	if c.apiKey == "" {
		return errors.New("elevenlabs api key required")
	}
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		return errors.New("elevenlabs voice id required")
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v1/text-to-speech/", voice)
	if err != nil {
		return fmt.Errorf("elevenlabs: build url: %w", err)
	}
	payload := speechRequest{
		Text:    req.Text,
		ModelID: c.modelID,
	}
	if req.Rate > 0 && req.Rate != 1.0 {
		payload.VoiceSettings.Speed = req.Rate
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("elevenlabs: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("elevenlabs: request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("elevenlabs: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("elevenlabs: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("elevenlabs: create output: %w", err)
	}
	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("elevenlabs: write audio: %w", err)
	}
	if written == 0 {
		return errors.New("elevenlabs: empty audio response")
	}
	return nil
}

var _ Synthesizer = (*ElevenLabs)(nil)
