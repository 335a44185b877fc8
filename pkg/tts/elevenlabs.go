package tts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/client"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

	defaultElevenLabsVoice  = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModel  = "eleven_multilingual_v2"
	defaultElevenLabsFormat = "mp3_44100_128"

	// ElevenLabs accepts speed in this range only.
	minElevenLabsSpeed = 0.7
	maxElevenLabsSpeed = 1.2
)

// ElevenLabsProvider synthesizes through the ElevenLabs REST API. It has
// no pitch control, so Request.Pitch is ignored.
type ElevenLabsProvider struct {
	apiKey              string
	defaultVoiceID      string
	defaultModelID      string
	defaultOutputFormat string
	baseURL             string
	http                *client.HTTPClient
	logger              *zap.Logger
}

// NewElevenLabsProvider creates a new ElevenLabs provider
func NewElevenLabsProvider(apiKey, voiceID, modelID, outputFormat string, timeout time.Duration, logger *zap.Logger) *ElevenLabsProvider {
	if voiceID == "" {
		voiceID = defaultElevenLabsVoice
	}
	if modelID == "" {
		modelID = defaultElevenLabsModel
	}
	if outputFormat == "" {
		outputFormat = defaultElevenLabsFormat
	}
	return &ElevenLabsProvider{
		apiKey:              apiKey,
		defaultVoiceID:      voiceID,
		defaultModelID:      modelID,
		defaultOutputFormat: outputFormat,
		baseURL:             elevenLabsBaseURL,
		http:                client.NewHTTPClient("elevenlabs", timeout),
		logger:              logger,
	}
}

// WithBaseURL points the provider at a different API root.
func (p *ElevenLabsProvider) WithBaseURL(baseURL string) *ElevenLabsProvider {
	p.baseURL = baseURL
	return p
}

// WithHTTPClient replaces the underlying client.
func (p *ElevenLabsProvider) WithHTTPClient(c *client.HTTPClient) *ElevenLabsProvider {
	p.http = c
	return p
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

// IsAvailable checks if an API key is configured
func (p *ElevenLabsProvider) IsAvailable() bool {
	return p.apiKey != ""
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	LanguageCode  string                  `json:"language_code,omitempty"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to speech audio
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, req *Request) (*Audio, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("ElevenLabs TTS not available. Set ELEVENLABS_API_KEY")
	}
	if req.Text == "" {
		return nil, ErrEmptyText
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = p.defaultVoiceID
	}
	outputFormat := req.Format
	if outputFormat == "" {
		outputFormat = p.defaultOutputFormat
	}

	body := elevenLabsRequest{
		Text:    req.Text,
		ModelID: p.defaultModelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
			Speed:           clampSpeed(req.SpeakingRate),
		},
	}
	if req.Language != "" {
		// ElevenLabs expects ISO 639-1 ("ml"), not the full tag.
		body.LanguageCode = req.Language[:min(2, len(req.Language))]
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", p.baseURL, voiceID, outputFormat)
	resp, err := p.http.PostJSON(ctx, url, map[string]string{
		"xi-api-key": p.apiKey,
		"Accept":     "audio/mpeg",
	}, body)
	if err != nil {
		return nil, fmt.Errorf("ElevenLabs synthesis failed: %w", err)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("ElevenLabs synthesis returned no audio")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &Audio{Data: resp.Body, ContentType: contentType, Provider: p.Name()}, nil
}

// Voice is one entry of the ElevenLabs voice catalogue.
type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// ListVoices returns the voices available to the configured account.
func (p *ElevenLabsProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("ElevenLabs TTS not available. Set ELEVENLABS_API_KEY")
	}

	var voicesResp struct {
		Voices []Voice `json:"voices"`
	}
	if err := p.http.GetJSON(ctx, p.baseURL+"/voices", map[string]string{"xi-api-key": p.apiKey}, &voicesResp); err != nil {
		return nil, fmt.Errorf("failed to list ElevenLabs voices: %w", err)
	}
	return voicesResp.Voices, nil
}

func clampSpeed(rate float64) float64 {
	if rate == 0 {
		return 1.0
	}
	if rate < minElevenLabsSpeed {
		return minElevenLabsSpeed
	}
	if rate > maxElevenLabsSpeed {
		return maxElevenLabsSpeed
	}
	return rate
}
