package handlers

import (
	stderrors "errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/audit"
	"github.com/fairgo/ai-ivr/pkg/dialect"
	"github.com/fairgo/ai-ivr/pkg/errors"
	"github.com/fairgo/ai-ivr/pkg/metrics"
	"github.com/fairgo/ai-ivr/pkg/middleware"
	"github.com/fairgo/ai-ivr/pkg/speech"
	"github.com/fairgo/ai-ivr/pkg/tts"
	"github.com/fairgo/ai-ivr/pkg/utils"
)

type TTSRequest struct {
	Text    string `json:"text"`
	Dialect string `json:"dialect"`
	VoiceID string `json:"voice_id"`
	Format  string `json:"format"`
}

// Response headers of POST /api/tts.
const (
	headerCache   = "X-TTS-Cache"
	headerJobID   = "X-TTS-Job-ID"
	headerDialect = "X-Dialect"
)

// Synthesize speaks text in the requested dialect and returns the audio.
func (h *Handler) Synthesize(c *gin.Context) {
	start := time.Now()

	if !h.cfg.FeatureTTS || !h.speech.CanSynthesize() {
		errors.ServiceUnavailable(c, "speech synthesis is not available")
		return
	}

	var req TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "invalid JSON body")
		return
	}
	tag, ok := h.resolveDialect(c, req.Dialect)
	if !ok {
		return
	}
	text := middleware.SanitizeString(req.Text)
	if text == "" {
		errors.BadRequest(c, "text is required")
		return
	}
	if utf8.RuneCountInString(text) > maxTextRunes {
		errors.BadRequest(c, "text is too long")
		return
	}

	res, err := h.speech.Synthesize(c.Request.Context(), speech.Input{
		Text:     text,
		Dialect:  tag,
		VoiceID:  req.VoiceID,
		Format:   req.Format,
		TenantID: c.GetString(middleware.ContextTenantID),
		UserID:   c.GetString(middleware.ContextUserID),
	})
	if err != nil {
		metrics.RecordRequest("/api/tts", false, time.Since(start))
		switch {
		case stderrors.Is(err, speech.ErrEmptyText):
			errors.BadRequest(c, err.Error())
		case stderrors.Is(err, tts.ErrNoProvider):
			errors.ServiceUnavailable(c, "no speech provider is configured")
		default:
			h.logger.Error("Speech synthesis failed", zap.Stringer("dialect", tag), zap.Error(err))
			errors.BadGateway(c, "speech provider failed")
		}
		return
	}
	metrics.RecordRequest("/api/tts", true, time.Since(start))

	h.recordAudit(c, audit.Entry{
		TenantID:     c.GetString(middleware.ContextTenantID),
		UserID:       c.GetString(middleware.ContextUserID),
		Action:       audit.ActionSynthesize,
		ResourceType: "tts_request",
		ResourceID:   res.JobID,
		Metadata: map[string]interface{}{
			"dialect":  tag.String(),
			"cached":   res.Cached,
			"provider": res.Provider,
		},
	})

	cacheStatus := "MISS"
	if res.Cached {
		cacheStatus = "HIT"
	}
	c.Header(headerCache, cacheStatus)
	c.Header(headerJobID, res.JobID)
	c.Header(headerDialect, tag.String())
	c.Header("Content-Disposition", "inline; filename=speech")
	c.Data(http.StatusOK, res.ContentType, res.Audio)
}

// ListHistory returns the tenant's past syntheses, newest first.
func (h *Handler) ListHistory(c *gin.Context) {
	if h.history == nil {
		errors.ServiceUnavailable(c, "synthesis history is not available")
		return
	}

	pagination := utils.ParsePagination(c)
	dialectFilter := ""
	if name := c.Query("dialect"); name != "" {
		tag, err := dialect.ParseTag(name)
		if err != nil {
			errors.BadRequest(c, "unknown dialect "+name)
			return
		}
		dialectFilter = tag.String()
	}

	records, total, err := h.history.List(c.Request.Context(),
		c.GetString(middleware.ContextTenantID), dialectFilter, pagination.Offset(), pagination.Limit)
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, utils.PaginatedResponse{
		Data:  records,
		Page:  pagination.Page,
		Limit: pagination.Limit,
		Total: total,
		Count: len(records),
	})
}

// ListVoices returns the voices of the hosted provider.
func (h *Handler) ListVoices(c *gin.Context) {
	if h.voices == nil {
		errors.ServiceUnavailable(c, "voice catalogue is not available")
		return
	}

	voices, err := h.voices.ListVoices(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list voices", zap.Error(err))
		errors.BadGateway(c, "failed to list voices")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"voices": voices,
		"count":  len(voices),
	})
}
