package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/pkg/common"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.Notifications.ListForUser(c.Request.Context(), session(c).UserID, c.Query("unread") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(list, "Notifications fetched"))
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Request.Context(), session(c).UserID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Notification read"))
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"updated": n}, "Notifications read"))
}
