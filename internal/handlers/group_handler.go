package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/internal/services"
	"club-finance/pkg/common"
)

func (h *Handler) CreateGroup(c *gin.Context) {
	var req services.CreateGroupDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	group, err := h.Groups.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewCreatedResponse(group, "Group created"))
}

func (h *Handler) UpdateGroup(c *gin.Context) {
	var req services.CreateGroupDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	group, err := h.Groups.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(group, "Group updated"))
}

func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.Groups.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(groups, "Groups fetched"))
}

func (h *Handler) GetGroup(c *gin.Context) {
	group, err := h.Groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(group, "Group fetched"))
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	if err := h.Groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Group deleted"))
}

type groupMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) AddGroupMember(c *gin.Context) {
	var req groupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Groups.AddMember(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Member added, synchronize the group to update its charges"))
}

func (h *Handler) RemoveGroupMember(c *gin.Context) {
	if err := h.Groups.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Member removed, synchronize the group to update its charges"))
}

func (h *Handler) CreateCharge(c *gin.Context) {
	var req services.CreateChargeDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.GroupID = c.Param("id")
	req.CreatedBy = session(c).UserID
	res, err := h.Groups.CreateCharge(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewCreatedResponse(res, "Charge created"))
}

func (h *Handler) ListCharges(c *gin.Context) {
	charges, err := h.Groups.ListCharges(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(charges, "Charges fetched"))
}

func (h *Handler) PreviewChargeSync(c *gin.Context) {
	report, err := h.Sync.Preview(c.Request.Context(), c.Param("chargeId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(report, report.Message))
}

type syncRequest struct {
	Confirm bool `json:"confirm"`
}

// SyncCharge reconciles one charge. A 409 carries the report listing what needs confirmation.
func (h *Handler) SyncCharge(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	report, err := h.Sync.Sync(c.Request.Context(), services.SyncGroupDTO{ChargeID: c.Param("chargeId"), Confirm: req.Confirm})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(report, report.Message))
}

func (h *Handler) SyncGroup(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	reports, err := h.Groups.SyncGroup(c.Request.Context(), c.Param("id"), req.Confirm)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(reports, "Group synchronized"))
}
