// Package tts wraps the speech synthesizers that turn dialect-adapted text
// into audio. Providers are tried in order by Manager until one succeeds.
package tts

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no configured provider is available.
var ErrNoProvider = errors.New("no TTS provider available")

// ErrEmptyText is returned for requests without text.
var ErrEmptyText = errors.New("text cannot be empty")

// Request describes one utterance to synthesize.
type Request struct {
	Text     string
	Language string // BCP-47, e.g. "ml-IN"
	VoiceID  string
	Format   string // provider-specific; empty selects the provider default

	// Prosody hints. SpeakingRate is a multiplier (1.0 = neutral), Pitch a
	// semitone offset (0 = neutral).
	SpeakingRate float64
	Pitch        float64
}

// Audio is a synthesized utterance.
type Audio struct {
	Data        []byte
	ContentType string
	Provider    string
}

// Synthesizer is implemented by every TTS backend.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *Request) (*Audio, error)

	// IsAvailable reports whether the provider is configured
	IsAvailable() bool

	Name() string
}
