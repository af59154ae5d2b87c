package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"club-finance/internal/auth"
	"club-finance/internal/services"
	"club-finance/pkg/common"
)

// SessionLoader rebuilds a caller session from the current profile.
type SessionLoader interface {
	Session(ctx context.Context, userID string) (*auth.Session, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Auth verifies the JWT and reloads the profile on every request, so role and account
// status changes take effect immediately.
func Auth(tokens *auth.TokenManager, sessions SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("missing bearer token", nil, http.StatusUnauthorized))
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid token", nil, http.StatusUnauthorized))
			return
		}

		session, err := sessions.Session(c.Request.Context(), claims.Subject)
		if err != nil {
			status := services.StatusOf(err)
			switch status {
			case http.StatusNotFound:
				c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid token", nil, http.StatusUnauthorized))
			case http.StatusInternalServerError:
				c.AbortWithStatusJSON(status, common.NewErrorResponse("internal server error", nil, status))
			default:
				c.AbortWithStatusJSON(status, common.NewErrorResponse(err.Error(), nil, status))
			}
			return
		}

		auth.SetSession(c, session)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.FromContext(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, common.NewErrorResponse("admin access required", nil, http.StatusForbidden))
			return
		}
		c.Next()
	}
}
