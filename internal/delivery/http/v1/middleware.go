package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/tasky/internal/session"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
)

// HandleAuthMiddleware rejects the request unless the device holds an
// authenticated session.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	current := h.holder.Session()
	if h.holder.State() != session.StateAuthenticated || current == nil {
		h.logger.Warn().
			Str("path", c.FullPath()).
			Msg("request without an authenticated session")
		abort(c, newUnauthorizedError(session.ErrNotAuthenticated.Error()))
		return
	}

	c.Set(userIDCtxKey, current.UserID)
	c.Set(sessionIDCtxKey, current.ID)
	c.Next()
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}
