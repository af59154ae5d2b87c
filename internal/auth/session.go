package auth

import (
	"github.com/gin-gonic/gin"

	"club-finance/internal/models"
)

const sessionKey = "session"

// Session is the identity of the caller, rebuilt from the database on every request.
type Session struct {
	UserID  string
	Role    string
	Profile *models.Profile
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

// CanAccess reports whether the caller may act on data owned by userID.
func (s *Session) CanAccess(userID string) bool {
	return s.IsAdmin() || (s != nil && s.UserID == userID)
}

func SetSession(c *gin.Context, s *Session) {
	c.Set(sessionKey, s)
}

func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
