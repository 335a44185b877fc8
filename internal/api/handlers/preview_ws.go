package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/dialect"
	"github.com/fairgo/ai-ivr/pkg/middleware"
)

const (
	previewReadTimeout  = 60 * time.Second
	previewPingInterval = 54 * time.Second
	previewMaxFrame     = 64 << 10
)

type previewFrame struct {
	Text    string `json:"text"`
	Dialect string `json:"dialect"`
}

type previewError struct {
	Error string `json:"error"`
}

// newPreviewUpgrader accepts browser origins listed in CORS_ALLOWED_ORIGINS.
// Development accepts any origin.
func newPreviewUpgrader(appEnv, allowedOrigins string, log *zap.Logger) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || appEnv == "development" || allowedOrigins == "*" {
				return true
			}
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					return true
				}
			}
			log.Warn("Preview WebSocket rejected - invalid origin",
				zap.String("origin", origin),
				zap.String("remote_addr", r.RemoteAddr),
			)
			return false
		},
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// PreviewSocket streams dialect transforms as the user types. Each text
// frame {text, dialect} is answered with the transformed text and voice
// settings, or {error}.
func (h *Handler) PreviewSocket(c *gin.Context) {
	upgrader := newPreviewUpgrader(h.cfg.AppEnv, h.cfg.CORSAllowedOrigins, h.logger)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade preview WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	tenantID := c.GetString(middleware.ContextTenantID)
	h.logger.Info("Preview WebSocket connected", zap.String("tenant_id", tenantID))

	conn.SetReadLimit(previewMaxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(previewReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(previewReadTimeout))
	})

	// gorilla/websocket allows one concurrent writer.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn("Preview WebSocket read error", zap.Error(err))
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			_ = conn.SetReadDeadline(time.Now().Add(previewReadTimeout))
			if err := write(h.previewReply(message)); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(previewPingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("Preview WebSocket closed", zap.String("tenant_id", tenantID))
			return
		case <-pingTicker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *Handler) previewReply(message []byte) interface{} {
	var frame previewFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return previewError{Error: "invalid frame"}
	}

	tag := h.defaultDialect()
	if frame.Dialect != "" {
		parsed, err := dialect.ParseTag(frame.Dialect)
		if err != nil {
			return previewError{Error: "unknown dialect " + frame.Dialect}
		}
		tag = parsed
	}

	text := middleware.SanitizeString(frame.Text)
	if utf8.RuneCountInString(text) > maxTextRunes {
		return previewError{Error: "text is too long"}
	}
	return h.speech.Preview(text, tag)
}
