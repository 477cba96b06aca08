package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/postpal/postpal-go/internal/infrastructure/security"
)

// SessionHeader carries the caller's session id across requests.
const SessionHeader = "X-PostPal-Session-ID"

const sessionContextKey = "postpalSessionID"

// SessionMiddleware reads the session id header, minting a fresh ULID when
// the caller has none, and echoes it back on the response.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" || len(sessionID) > 64 {
			sessionID = security.GenerateULID()
		}

		c.Set(sessionContextKey, sessionID)
		c.Header(SessionHeader, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session id established for this request.
func GetSessionID(c *gin.Context) string {
	if sessionID, exists := c.Get(sessionContextKey); exists {
		if id, ok := sessionID.(string); ok {
			return id
		}
	}
	return ""
}
