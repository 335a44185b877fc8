package handlers

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/fairgo/ai-ivr/pkg/dialect"
	"github.com/fairgo/ai-ivr/pkg/errors"
	"github.com/fairgo/ai-ivr/pkg/metrics"
	"github.com/fairgo/ai-ivr/pkg/middleware"
)

// maxTextRunes bounds a single utterance; IVR prompts are short.
const maxTextRunes = 5000

type TransformRequest struct {
	Text    string `json:"text"`
	Dialect string `json:"dialect"`
}

// ListDialects returns every dialect with its display name and voice settings.
func (h *Handler) ListDialects(c *gin.Context) {
	infos := make([]dialect.Info, 0, len(dialect.All()))
	for _, tag := range dialect.All() {
		infos = append(infos, dialect.Describe(tag))
	}
	c.JSON(http.StatusOK, gin.H{
		"dialects": infos,
		"default":  h.defaultDialect(),
	})
}

// GetDialect returns one dialect. The tag is resolved by ValidateDialectParam.
func (h *Handler) GetDialect(c *gin.Context) {
	tag := c.MustGet(middleware.ContextDialect).(dialect.Tag)
	c.JSON(http.StatusOK, dialect.Describe(tag))
}

// TransformText rewrites text into a dialect without synthesizing it.
func (h *Handler) TransformText(c *gin.Context) {
	start := time.Now()

	var req TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "invalid JSON body")
		return
	}
	tag, ok := h.resolveDialect(c, req.Dialect)
	if !ok {
		return
	}
	text := middleware.SanitizeString(req.Text)
	if utf8.RuneCountInString(text) > maxTextRunes {
		errors.BadRequest(c, "text is too long")
		return
	}

	preview := h.speech.Preview(text, tag)
	metrics.RecordRequest("/api/dialects/transform", true, time.Since(start))
	c.JSON(http.StatusOK, preview)
}

// resolveDialect parses name, falling back to the configured default. It
// writes a 400 and reports false for unknown names.
func (h *Handler) resolveDialect(c *gin.Context, name string) (dialect.Tag, bool) {
	if name == "" {
		return h.defaultDialect(), true
	}
	tag, err := dialect.ParseTag(name)
	if err != nil {
		errors.BadRequest(c, "unknown dialect "+name)
		return 0, false
	}
	return tag, true
}

func (h *Handler) defaultDialect() dialect.Tag {
	tag, err := dialect.ParseTag(h.cfg.DefaultDialect)
	if err != nil {
		return dialect.Standard
	}
	return tag
}
