package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fairgo/ai-ivr/pkg/auth"
	"github.com/fairgo/ai-ivr/pkg/errors"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "user_id"
	ContextTenantID = "tenant_id"
	ContextEmail    = "user_email"
	ContextRole     = "user_role"
)

// AuthMiddleware requires a bearer access token.
func AuthMiddleware(signer auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			errors.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		authenticate(c, signer, token)
	}
}

// QueryTokenAuth reads the access token from the "token" query parameter.
// Browsers cannot set headers on WebSocket upgrades.
func QueryTokenAuth(signer auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			errors.Unauthorized(c, "token query parameter required")
			c.Abort()
			return
		}
		authenticate(c, signer, token)
	}
}

func authenticate(c *gin.Context, signer auth.Signer, token string) {
	claims, err := signer.Parse(token)
	if err != nil {
		errors.Unauthorized(c, "invalid or expired token")
		c.Abort()
		return
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextTenantID, claims.TenantID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextRole, claims.Role)
	c.Next()
}

func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			errors.Forbidden(c, "role not found in token")
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		errors.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
