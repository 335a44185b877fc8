package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/audit"
	"github.com/fairgo/ai-ivr/pkg/auth"
	"github.com/fairgo/ai-ivr/pkg/env"
	"github.com/fairgo/ai-ivr/pkg/logger"
	"github.com/fairgo/ai-ivr/pkg/speech"
	"github.com/fairgo/ai-ivr/pkg/tts"
	"github.com/fairgo/ai-ivr/pkg/ttscache"
)

// UserStore is satisfied by *auth.UserStore.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// TokenStore is satisfied by *auth.RefreshStore.
type TokenStore interface {
	Store(ctx context.Context, userID, tenantID, token string) error
	// Consume revokes a refresh token and returns its user ID. Concurrent
	// calls with the same token must not both succeed.
	Consume(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// AuditLog is satisfied by *audit.Logger.
type AuditLog interface {
	Log(ctx context.Context, e audit.Entry) error
	List(ctx context.Context, tenantID string, action audit.Action, offset, limit int) ([]audit.Entry, int64, error)
}

// VoiceLister is satisfied by *tts.ElevenLabsProvider.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]tts.Voice, error)
}

// CacheStats is satisfied by *ttscache.Cache.
type CacheStats interface {
	Stats() (ttscache.Stats, error)
}

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators of Handler. Optional ones may be nil and the
// routes that need them answer 503.
type Deps struct {
	Config  *env.Config
	Signer  auth.Signer
	Speech  *speech.Service
	History speech.History
	Users   UserStore
	Tokens  TokenStore
	Audit   AuditLog
	Voices  VoiceLister
	Cache   CacheStats
	Checks  map[string]HealthCheck
	Logger  *zap.Logger
}

type Handler struct {
	cfg     *env.Config
	signer  auth.Signer
	speech  *speech.Service
	history speech.History
	users   UserStore
	tokens  TokenStore
	audit   AuditLog
	voices  VoiceLister
	cache   CacheStats
	checks  map[string]HealthCheck
	logger  *zap.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		cfg:     d.Config,
		signer:  d.Signer,
		speech:  d.Speech,
		history: d.History,
		users:   d.Users,
		tokens:  d.Tokens,
		audit:   d.Audit,
		voices:  d.Voices,
		cache:   d.Cache,
		checks:  d.Checks,
		logger:  d.Logger,
	}
	if h.cfg == nil {
		h.cfg = &env.Config{}
	}
	if h.logger == nil {
		h.logger = logger.Named("api")
	}
	if h.speech == nil {
		h.speech = speech.NewService(nil, h.logger)
	}
	return h
}

// Signer exposes the token signer for route middleware.
func (h *Handler) Signer() auth.Signer {
	return h.signer
}
