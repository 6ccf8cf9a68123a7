package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-http-utils/headers"
)

// AdminAuth guards the operational endpoints with a static bearer token.
// Token comparison is constant-time.
func AdminAuth(token string) gin.HandlerFunc {
	expected := []byte(token)

	return func(c *gin.Context) {
		authorization := c.GetHeader(headers.Authorization)
		fields := strings.Fields(authorization)
		if len(fields) != 2 || fields[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing admin token"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(fields[1]), expected) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing admin token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
