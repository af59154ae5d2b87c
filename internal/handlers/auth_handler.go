package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/internal/services"
	"club-finance/pkg/common"
)

func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	profile, err := h.Members.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewCreatedResponse(profile, "Registration received, awaiting approval"))
}

func (h *Handler) Login(c *gin.Context) {
	var req services.LoginDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.Members.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(res, "Signed in"))
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(session(c).Profile, "Profile fetched"))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.UserID = session(c).UserID
	if err := h.Members.ChangePassword(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Password changed"))
}
