package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/internal/models"
	"club-finance/internal/services"
	"club-finance/pkg/common"
)

func (h *Handler) ListMembers(c *gin.Context) {
	res, err := h.Members.List(c.Request.Context(), services.ListMembersDTO{
		Status: c.Query("status"),
		Search: c.Query("q"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", common.DefaultPageSize),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetMember(c *gin.Context) {
	id := c.Param("id")
	if !session(c).CanAccess(id) {
		h.respondError(c, services.ErrNotAllowed)
		return
	}
	profile, err := h.Members.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(profile, "Member fetched"))
}

func (h *Handler) ApproveMember(c *gin.Context) {
	h.memberUpdate(c, func() (*models.Profile, error) {
		return h.Members.Approve(c.Request.Context(), c.Param("id"))
	})
}

func (h *Handler) RejectMember(c *gin.Context) {
	h.memberUpdate(c, func() (*models.Profile, error) {
		return h.Members.Reject(c.Request.Context(), c.Param("id"))
	})
}

type accountStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) SetAccountStatus(c *gin.Context) {
	var req accountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.memberUpdate(c, func() (*models.Profile, error) {
		return h.Members.SetAccountStatus(c.Request.Context(), c.Param("id"), req.Status)
	})
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) SetRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if c.Param("id") == session(c).UserID {
		h.respondError(c, services.NewValidationError("admins cannot change their own role"))
		return
	}
	h.memberUpdate(c, func() (*models.Profile, error) {
		return h.Members.SetRole(c.Request.Context(), c.Param("id"), req.Role)
	})
}

func (h *Handler) memberUpdate(c *gin.Context, fn func() (*models.Profile, error)) {
	profile, err := fn()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(profile, "Member updated"))
}

func (h *Handler) DeleteMember(c *gin.Context) {
	if c.Param("id") == session(c).UserID {
		h.respondError(c, services.NewValidationError("admins cannot delete themselves"))
		return
	}
	if err := h.Members.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Member deleted"))
}
