package tts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/client"
)

const backendSynthesizePath = "/api/tts/synthesize"

// BackendProvider calls the speech service exposed by the Python backend.
type BackendProvider struct {
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

// NewBackendProvider creates a provider for the backend at baseURL. An empty
// baseURL yields an unavailable provider.
func NewBackendProvider(baseURL string, timeout time.Duration, logger *zap.Logger) *BackendProvider {
	return &BackendProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client.NewHTTPClient("python-backend-tts", timeout),
		logger:  logger,
	}
}

// WithHTTPClient replaces the underlying client.
func (p *BackendProvider) WithHTTPClient(c *client.HTTPClient) *BackendProvider {
	p.http = c
	return p
}

func (p *BackendProvider) Name() string { return "backend" }

func (p *BackendProvider) IsAvailable() bool { return p.baseURL != "" }

type backendRequest struct {
	Text         string  `json:"text"`
	Language     string  `json:"language"`
	Voice        string  `json:"voice,omitempty"`
	Format       string  `json:"format,omitempty"`
	SpeakingRate float64 `json:"speaking_rate"`
	Pitch        float64 `json:"pitch"`
}

// Synthesize posts the utterance and returns the audio body as-is.
func (p *BackendProvider) Synthesize(ctx context.Context, req *Request) (*Audio, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("backend TTS not available. Set PYTHON_BACKEND_URL")
	}
	if req.Text == "" {
		return nil, ErrEmptyText
	}

	language := req.Language
	if language == "" {
		language = "ml-IN"
	}

	resp, err := p.http.PostJSON(ctx, p.baseURL+backendSynthesizePath, map[string]string{
		"Accept": "audio/*",
	}, backendRequest{
		Text:         req.Text,
		Language:     language,
		Voice:        req.VoiceID,
		Format:       req.Format,
		SpeakingRate: req.SpeakingRate,
		Pitch:        req.Pitch,
	})
	if err != nil {
		return nil, fmt.Errorf("backend synthesis failed: %w", err)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("backend synthesis returned no audio")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(resp.Body)
	}

	p.logger.Debug("Backend synthesis complete",
		zap.Int("bytes", len(resp.Body)),
		zap.String("content_type", contentType),
	)

	return &Audio{Data: resp.Body, ContentType: contentType, Provider: p.Name()}, nil
}
