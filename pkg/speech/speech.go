// Package speech turns standard Malayalam text into dialect-flavoured audio:
// it rewrites the text for the requested dialect, picks the dialect's voice
// parameters and synthesizes through the configured providers, serving
// repeats from the disk cache.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/fairgo/ai-ivr/pkg/dialect"
	"github.com/fairgo/ai-ivr/pkg/logger"
	"github.com/fairgo/ai-ivr/pkg/metrics"
	"github.com/fairgo/ai-ivr/pkg/otel"
	"github.com/fairgo/ai-ivr/pkg/tts"
	"github.com/fairgo/ai-ivr/pkg/ttscache"
)

// ErrEmptyText is returned when there is nothing to synthesize.
var ErrEmptyText = errors.New("text is required")

// Synthesizer is satisfied by *tts.Manager.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *tts.Request) (*tts.Audio, error)
}

// Cache is satisfied by *ttscache.Cache.
type Cache interface {
	Get(key string) (*ttscache.Entry, error)
	Put(key string, entry *ttscache.Entry) error
}

// Input is one synthesis request.
type Input struct {
	Text     string
	Dialect  dialect.Tag
	VoiceID  string
	Format   string
	TenantID string
	UserID   string
}

// Result is the outcome of Synthesize.
type Result struct {
	JobID           string
	Text            string
	TransformedText string
	Dialect         dialect.Tag
	Params          dialect.VoiceParams
	Audio           []byte
	ContentType     string
	Cached          bool
	Provider        string
}

// Preview is a transform without synthesis.
type Preview struct {
	Text        string              `json:"text"`
	Transformed string              `json:"transformed"`
	Dialect     dialect.Tag         `json:"dialect"`
	DisplayName string              `json:"display_name"`
	VoiceParams dialect.VoiceParams `json:"voice_params"`
}

// Service runs the dialect speech pipeline.
type Service struct {
	synth   Synthesizer
	cache   Cache
	history History
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache serves repeated requests from c.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithHistory records every synthesis to h.
func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

// NewService creates a pipeline around synth, which may be nil when speech
// synthesis is disabled; Preview still works in that case.
func NewService(synth Synthesizer, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Named("speech")
	}
	s := &Service{synth: synth, logger: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanSynthesize reports whether a synthesizer is configured.
func (s *Service) CanSynthesize() bool {
	return s.synth != nil
}

// normalize puts text in NFC so that precomposed and decomposed chillu and
// vowel sign sequences hit the same rules.
func normalize(text string) string {
	return norm.NFC.String(text)
}

// Preview rewrites text for tag and returns the voice settings that would be
// used to speak it.
func (s *Service) Preview(text string, tag dialect.Tag) Preview {
	text = normalize(text)
	transformed := dialect.Transform(text, tag)
	metrics.RecordTransform(tag.String())

	return Preview{
		Text:        text,
		Transformed: transformed,
		Dialect:     tag,
		DisplayName: dialect.DisplayName(tag),
		VoiceParams: dialect.VoiceParamsFor(tag),
	}
}

// Synthesize transforms in.Text for in.Dialect and returns audio spoken with
// the dialect's voice parameters.
func (s *Service) Synthesize(ctx context.Context, in Input) (*Result, error) {
	text := normalize(strings.TrimSpace(in.Text))
	if text == "" {
		return nil, ErrEmptyText
	}
	if s.synth == nil {
		return nil, tts.ErrNoProvider
	}

	ctx, span := otel.StartSpan(ctx, "speech.synthesize",
		attribute.String("dialect", in.Dialect.String()),
		attribute.Int("text.runes", len([]rune(text))),
	)
	var err error
	defer func() { otel.EndSpan(span, err) }()

	transformed := dialect.Transform(text, in.Dialect)
	metrics.RecordTransform(in.Dialect.String())
	params := dialect.VoiceParamsFor(in.Dialect)

	res := &Result{
		JobID:           uuid.NewString(),
		Text:            text,
		TransformedText: transformed,
		Dialect:         in.Dialect,
		Params:          params,
	}

	key := ttscache.Key(transformed, in.Dialect.String(), in.VoiceID, params.SpeakingRate, params.Pitch, in.Format)
	if entry := s.lookup(ctx, key); entry != nil {
		res.Audio = entry.Data
		res.ContentType = entry.ContentType
		res.Cached = true
		res.Provider = "cache"
	} else {
		var audio *tts.Audio
		audio, err = s.synth.Synthesize(ctx, &tts.Request{
			Text:         transformed,
			Language:     "ml-IN",
			VoiceID:      in.VoiceID,
			Format:       in.Format,
			SpeakingRate: params.SpeakingRate,
			Pitch:        params.Pitch,
		})
		if err != nil {
			return nil, fmt.Errorf("synthesis failed: %w", err)
		}
		res.Audio = audio.Data
		res.ContentType = audio.ContentType
		res.Provider = audio.Provider
		s.store(key, audio)
	}

	span.SetAttributes(
		attribute.Bool("tts.cached", res.Cached),
		attribute.String("tts.provider", res.Provider),
	)
	metrics.RecordSynthesis(in.Dialect.String())

	s.logger.Info("Synthesized dialect speech",
		zap.String("job_id", res.JobID),
		zap.String("tenant_id", in.TenantID),
		zap.Stringer("dialect", in.Dialect),
		logger.TextPreview("text", transformed),
		zap.Bool("cached", res.Cached),
		zap.String("provider", res.Provider),
		zap.Int("bytes", len(res.Audio)),
	)

	s.record(ctx, in, res)
	return res, nil
}

func (s *Service) lookup(ctx context.Context, key string) *ttscache.Entry {
	if s.cache == nil {
		return nil
	}
	_, span := otel.StartSpan(ctx, "ttscache.get")
	entry, err := s.cache.Get(key)
	span.SetAttributes(attribute.Bool("hit", err == nil))
	if err != nil && !errors.Is(err, ttscache.ErrMiss) {
		s.logger.Warn("TTS cache read failed", zap.Error(err))
		otel.EndSpan(span, err)
		return nil
	}
	otel.EndSpan(span, nil)
	return entry
}

func (s *Service) store(key string, audio *tts.Audio) {
	if s.cache == nil || len(audio.Data) == 0 {
		return
	}
	if err := s.cache.Put(key, &ttscache.Entry{Data: audio.Data, ContentType: audio.ContentType}); err != nil {
		s.logger.Warn("TTS cache write failed", zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, in Input, res *Result) {
	if s.history == nil {
		return
	}
	err := s.history.Record(context.WithoutCancel(ctx), Record{
		ID:              res.JobID,
		TenantID:        in.TenantID,
		UserID:          in.UserID,
		Dialect:         res.Dialect.String(),
		Text:            res.Text,
		TransformedText: res.TransformedText,
		VoiceID:         in.VoiceID,
		Format:          in.Format,
		SpeakingRate:    res.Params.SpeakingRate,
		Pitch:           res.Params.Pitch,
		Provider:        res.Provider,
		Cached:          res.Cached,
		Bytes:           len(res.Audio),
	})
	if err != nil {
		s.logger.Error("Failed to record synthesis", zap.String("job_id", res.JobID), zap.Error(err))
	}
}
