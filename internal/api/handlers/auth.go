package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/audit"
	"github.com/fairgo/ai-ivr/pkg/auth"
	"github.com/fairgo/ai-ivr/pkg/errors"
	"github.com/fairgo/ai-ivr/pkg/logger"
	"github.com/fairgo/ai-ivr/pkg/middleware"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         UserInfo  `json:"user"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserInfo struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *Handler) authAvailable(c *gin.Context) bool {
	if h.users == nil || h.tokens == nil {
		errors.ServiceUnavailable(c, "authentication store is not available")
		return false
	}
	return true
}

func (h *Handler) Login(c *gin.Context) {
	if !h.authAvailable(c) {
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "email and password are required")
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !stderrors.Is(err, auth.ErrUserNotFound) {
			errors.InternalError(c, err, h.logger)
			return
		}
		h.logger.Info("Login for unknown user", logger.MaskEmail("email", req.Email))
		errors.Unauthorized(c, "invalid credentials")
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.logger.Info("Login with wrong password", logger.MaskEmail("email", req.Email))
		errors.Unauthorized(c, "invalid credentials")
		return
	}
	if !user.Active {
		errors.Forbidden(c, "account is inactive")
		return
	}

	resp, ok := h.issueTokens(c, user)
	if !ok {
		return
	}

	h.recordAudit(c, audit.Entry{
		TenantID:     user.TenantID,
		UserID:       user.ID,
		Action:       audit.ActionLogin,
		ResourceType: "user",
		ResourceID:   user.ID,
		Metadata:     map[string]interface{}{"ip": c.ClientIP()},
	})

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Refresh(c *gin.Context) {
	if !h.authAvailable(c) {
		return
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, "refresh_token is required")
		return
	}

	// Rotate: the presented token is single use.
	userID, err := h.tokens.Consume(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if !stderrors.Is(err, auth.ErrRefreshTokenInvalid) {
			errors.InternalError(c, err, h.logger)
			return
		}
		errors.Unauthorized(c, "invalid or expired refresh token")
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		errors.Unauthorized(c, "user not found")
		return
	}
	if !user.Active {
		errors.Forbidden(c, "account is inactive")
		return
	}

	resp, ok := h.issueTokens(c, user)
	if !ok {
		return
	}

	h.recordAudit(c, audit.Entry{
		TenantID:     user.TenantID,
		UserID:       user.ID,
		Action:       audit.ActionTokenRefresh,
		ResourceType: "user",
		ResourceID:   user.ID,
	})

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && h.tokens != nil {
		if err := h.tokens.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
			h.logger.Warn("Failed to revoke refresh token on logout", zap.Error(err))
		}
	}

	h.recordAudit(c, audit.Entry{
		TenantID:     c.GetString(middleware.ContextTenantID),
		UserID:       c.GetString(middleware.ContextUserID),
		Action:       audit.ActionLogout,
		ResourceType: "user",
		ResourceID:   c.GetString(middleware.ContextUserID),
	})

	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (h *Handler) issueTokens(c *gin.Context, user *auth.User) (*AuthResponse, bool) {
	accessToken, expiresAt, err := h.signer.Issue(user)
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return nil, false
	}
	refreshToken, err := auth.GenerateRefreshToken()
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return nil, false
	}
	if err := h.tokens.Store(c.Request.Context(), user.ID, user.TenantID, refreshToken); err != nil {
		errors.InternalError(c, err, h.logger)
		return nil, false
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserInfo{
			ID:       user.ID,
			TenantID: user.TenantID,
			Email:    user.Email,
			Role:     user.Role,
		},
		ExpiresAt: expiresAt,
	}, true
}
