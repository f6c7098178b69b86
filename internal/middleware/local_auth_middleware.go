package middleware

import (
	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"

	"github.com/gin-gonic/gin"
)

// LocalAuthMiddleware injects a fixed identity in local mode, bypassing JWT
// validation so the API is usable without an identity provider.
type LocalAuthMiddleware struct {
	userID uint
	role   string
}

// NewLocalAuthMiddleware builds the local-mode auth middleware.
func NewLocalAuthMiddleware(userID uint, role string) *LocalAuthMiddleware {
	return &LocalAuthMiddleware{userID: userID, role: role}
}

// Handle writes the fixed identity into the context for downstream handlers.
func (m *LocalAuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserID, m.userID)
		c.Set(ContextRole, m.role)
		c.Set(ContextIsAdmin, m.role == userdomain.RoleAdministrator)
		c.Next()
	}
}
