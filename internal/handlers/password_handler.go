package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/internal/middleware"
	"club-finance/internal/services"
	"club-finance/pkg/common"
)

type resetPasswordRequest struct {
	UserID      string `json:"userId"`
	AdminUserID string `json:"adminUserId"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword serves POST /admin/reset-password. It authenticates on its own so that a
// missing or bad token is always a 401, before any body validation.
func (h *Handler) ResetPassword(c *gin.Context) {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("missing authorization token", nil, http.StatusUnauthorized))
		return
	}
	claims, err := h.Tokens.Verify(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("invalid token", nil, http.StatusUnauthorized))
		return
	}

	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.UserID == "" {
		badRequest(c, "userId is required")
		return
	}

	password, err := h.Members.ResetPassword(c.Request.Context(), services.ResetPasswordDTO{
		CallerID:    claims.Subject,
		AdminUserID: req.AdminUserID,
		UserID:      req.UserID,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "password": password})
}
