package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/internal/services"
	"club-finance/pkg/common"
)

func (h *Handler) CreatePayment(c *gin.Context) {
	var req services.CreatePaymentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	payment, err := h.Payments.CreateMemberPayment(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewCreatedResponse(payment, "Payment created"))
}

func (h *Handler) CreateExpense(c *gin.Context) {
	var req services.CreatePaymentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	expense, err := h.Payments.CreateExpense(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewCreatedResponse(expense, "Expense created"))
}

// ListPayments lists everything for admins; athletes only ever see their own payments.
func (h *Handler) ListPayments(c *gin.Context) {
	s := session(c)
	filter := services.ListPaymentsDTO{
		MemberID: c.Query("member_id"),
		GroupID:  c.Query("group_id"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", common.DefaultPageSize),
	}
	if !s.IsAdmin() {
		filter.MemberID = s.UserID
	}
	res, err := h.Payments.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetPayment(c *gin.Context) {
	view, err := h.Payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !session(c).IsAdmin() && (view.MemberID == nil || !session(c).CanAccess(*view.MemberID)) {
		h.respondError(c, services.ErrPaymentNotFound)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(view, "Payment fetched"))
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	var req services.UpdatePaymentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	payment, err := h.Payments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(payment, "Payment updated"))
}

func (h *Handler) DeletePayment(c *gin.Context) {
	if err := h.Payments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Payment deleted"))
}

func (h *Handler) PaymentSummary(c *gin.Context) {
	memberID := c.Query("member_id")
	if s := session(c); !s.IsAdmin() {
		memberID = s.UserID
	}
	sum, err := h.Payments.Summary(c.Request.Context(), memberID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(sum, "Summary fetched"))
}
