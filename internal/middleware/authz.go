package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kyccodes/internal/authz"
)

// RequireScopes lets the request through only when the token grants every
// listed scope.
func RequireScopes(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxScopes)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"authz.missing_scopes"}})
			return
		}
		granted, _ := v.([]string)
		for _, s := range required {
			if !authz.HasScope(granted, s) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"errors": []string{"authz.invalid_permission"}})
				return
			}
		}
		c.Next()
	}
}
