package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/internal/services"
	"club-finance/pkg/common"
)

func (h *Handler) ListTickets(c *gin.Context) {
	s := session(c)
	filter := services.ListTicketsDTO{
		UserID:      c.Query("user_id"),
		OnlyCurrent: c.Query("current") == "true",
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", common.DefaultPageSize),
	}
	if !s.IsAdmin() {
		filter.UserID = s.UserID
	}
	res, err := h.Tickets.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetTicket returns the ticket with its proofs decoded.
func (h *Handler) GetTicket(c *gin.Context) {
	ticket, err := h.Tickets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !session(c).CanAccess(ticket.UserID) {
		h.respondError(c, services.ErrTicketNotFound)
		return
	}
	proofs, err := services.BundledProofs(ticket)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"ticket": ticket, "proofs": proofs}, "Ticket fetched"))
}
