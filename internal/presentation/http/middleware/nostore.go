package middleware

import "github.com/gin-gonic/gin"

// NoStoreMiddleware disables caching on lead-magnet API responses so stale
// state never leaks between visitors behind a shared cache.
func NoStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
