package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"club-finance/internal/auth"
	"club-finance/internal/logger"
	"club-finance/internal/services"
	"club-finance/pkg/common"
)

type Handler struct {
	Tokens        *auth.TokenManager
	Members       *services.MemberService
	Payments      *services.PaymentService
	Proofs        *services.ProofService
	Review        *services.ReviewService
	Tickets       *services.TicketService
	Groups        *services.GroupService
	Sync          *services.GroupSyncService
	Notifications *services.NotificationService
	Logger        *logger.Logger
}

// respondError writes an ErrorResponse. Backend failures are logged and hidden.
func (h *Handler) respondError(c *gin.Context, err error) {
	var se *services.ServiceError
	if errors.As(err, &se) {
		c.JSON(se.Status, common.NewErrorResponse(se.Message, se.Data, se.Status))
		return
	}
	h.Logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, common.NewErrorResponse("internal server error", nil, http.StatusInternalServerError))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, common.NewErrorResponse(message, nil, http.StatusBadRequest))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

// session returns the caller; routes using it are always behind middleware.Auth.
func session(c *gin.Context) *auth.Session {
	return auth.FromContext(c)
}
