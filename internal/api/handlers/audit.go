package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairgo/ai-ivr/pkg/audit"
	"github.com/fairgo/ai-ivr/pkg/errors"
	"github.com/fairgo/ai-ivr/pkg/middleware"
	"github.com/fairgo/ai-ivr/pkg/utils"
)

// ListAuditLogs returns the caller's tenant audit trail, newest first.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	if h.audit == nil {
		errors.ServiceUnavailable(c, "audit log is not available")
		return
	}

	pagination := utils.ParsePagination(c)
	entries, total, err := h.audit.List(c.Request.Context(),
		c.GetString(middleware.ContextTenantID),
		audit.Action(c.Query("action")),
		pagination.Offset(), pagination.Limit)
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, utils.PaginatedResponse{
		Data:  entries,
		Page:  pagination.Page,
		Limit: pagination.Limit,
		Total: total,
		Count: len(entries),
	})
}

func (h *Handler) recordAudit(c *gin.Context, e audit.Entry) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(c.Request.Context(), e)
}
