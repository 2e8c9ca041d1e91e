package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserID = "user_id"
	CtxUID    = "uid"
	CtxScopes = "scopes"
)

type Claims struct {
	UserID int64    `json:"user_id"`
	UID    string   `json:"uid"`
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates an HS256 bearer token and puts the principal
// (user_id when present, uid, scopes) into the gin context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"jwt.decode_and_verify"}})
			return
		}
		tokenStr := strings.TrimSpace(parts[1])

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithLeeway(2*time.Minute), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"jwt.decode_and_verify"}})
			return
		}

		// service tokens carry scopes only
		if claims.UserID != 0 {
			c.Set(CtxUserID, claims.UserID)
		}
		c.Set(CtxUID, claims.UID)
		c.Set(CtxScopes, claims.Scopes)

		c.Next()
	}
}

// RequireUser rejects tokens that do not identify an end user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := c.Get(CtxUserID); !ok || !positiveID(id) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"jwt.decode_and_verify"}})
			return
		}
		c.Next()
	}
}

func positiveID(v any) bool {
	id, ok := v.(int64)
	return ok && id > 0
}
