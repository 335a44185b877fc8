package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fairgo/ai-ivr/pkg/dialect"
	"github.com/fairgo/ai-ivr/pkg/errors"
)

// ContextDialect holds the parsed dialect.Tag set by ValidateDialectParam.
const ContextDialect = "dialect"

// ValidateDialectParam resolves a path parameter to a dialect tag, answering
// 404 for unknown dialects.
func ValidateDialectParam(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tag, err := dialect.ParseTag(c.Param(paramName))
		if err != nil || c.Param(paramName) == "" {
			errors.NotFound(c, "unknown dialect "+c.Param(paramName))
			c.Abort()
			return
		}
		c.Set(ContextDialect, tag)
		c.Next()
	}
}

// SanitizeString removes NUL bytes and surrounding whitespace.
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
