package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-finance/internal/handlers"
	"club-finance/internal/logger"
	"club-finance/internal/middleware"
)

func New(h *handlers.Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.Metrics())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome To Club Finance service"})
	})
	r.GET("/metrics", middleware.PrometheusHandler())

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/admin/reset-password", h.ResetPassword)

	api := r.Group("/api", middleware.Auth(h.Tokens, h.Members))
	{
		api.GET("/me", h.Me)
		api.POST("/me/password", h.ChangePassword)
		api.GET("/members/:id", h.GetMember)

		api.GET("/payments", h.ListPayments)
		api.GET("/payments/summary", h.PaymentSummary)
		api.GET("/payments/:id", h.GetPayment)
		api.GET("/payments/:id/proofs", h.ListPaymentProofs)
		api.POST("/payments/:id/proofs", h.SubmitProof)
		api.GET("/proofs/:id", h.GetProof)

		api.GET("/tickets", h.ListTickets)
		api.GET("/tickets/:id", h.GetTicket)

		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/read", h.MarkAllNotificationsRead)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
	}

	admin := api.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/members", h.ListMembers)
		admin.POST("/members/:id/approve", h.ApproveMember)
		admin.POST("/members/:id/reject", h.RejectMember)
		admin.PUT("/members/:id/status", h.SetAccountStatus)
		admin.PUT("/members/:id/role", h.SetRole)
		admin.DELETE("/members/:id", h.DeleteMember)

		admin.POST("/payments", h.CreatePayment)
		admin.POST("/expenses", h.CreateExpense)
		admin.PATCH("/payments/:id", h.UpdatePayment)
		admin.DELETE("/payments/:id", h.DeletePayment)

		admin.GET("/proofs/pending", h.ListPendingProofs)
		admin.POST("/proofs/:id/approve", h.ApproveProof)
		admin.POST("/proofs/:id/reject", h.RejectProof)

		admin.GET("/groups", h.ListGroups)
		admin.POST("/groups", h.CreateGroup)
		admin.GET("/groups/:id", h.GetGroup)
		admin.PUT("/groups/:id", h.UpdateGroup)
		admin.DELETE("/groups/:id", h.DeleteGroup)
		admin.POST("/groups/:id/members", h.AddGroupMember)
		admin.DELETE("/groups/:id/members/:userId", h.RemoveGroupMember)
		admin.GET("/groups/:id/charges", h.ListCharges)
		admin.POST("/groups/:id/charges", h.CreateCharge)
		admin.POST("/groups/:id/sync", h.SyncGroup)
		admin.GET("/charges/:chargeId/sync", h.PreviewChargeSync)
		admin.POST("/charges/:chargeId/sync", h.SyncCharge)
	}

	return r
}
