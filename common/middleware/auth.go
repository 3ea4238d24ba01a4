package middleware

import (
	"net/http"
	"strings"

	"catalog-service/common/auth"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
)

// Identity records the caller's identity when one is presented. A bearer
// token is verified when the validator is enabled. The X-User-ID and
// X-User-Role headers are honoured only when trustGatewayHeaders is set, which
// is only safe behind a gateway that strips them from client requests.
// Anonymous requests pass.
func Identity(validator *auth.TokenValidator, trustGatewayHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator.Enabled() {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				claims, err := validator.ParseAndValidateToken(strings.TrimPrefix(header, "Bearer "), "")
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "Invalid or expired token"})
					return
				}
				if sub, ok := claims["sub"].(string); ok {
					c.Set(UserContextKey, sub)
				}
				if role, ok := claims["role"].(string); ok {
					c.Set(RoleContextKey, role)
				}
				c.Next()
				return
			}
		}

		if trustGatewayHeaders {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set(UserContextKey, userID)
				c.Set(RoleContextKey, c.GetHeader("X-User-Role"))
			}
		}
		c.Next()
	}
}

// AdminOnly restricts access to admin role.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleContextKey) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": "fail", "message": "Admin role required"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the caller's id, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserContextKey)
}
