package middlewares

import (
	"net/http"
	"strings"

	"nutrilens/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts "Authorization: Bearer <jwt>". When allowQuery is
// set a ?token= parameter is accepted too, for websocket clients that cannot
// set headers.
func AuthMiddleware(secret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		} else if allowQuery {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		userID, err := utils.ParseJWT(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
