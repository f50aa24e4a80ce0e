package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
	"github.com/noah-isme/student-affairs-api/pkg/response"
)

// RequireRoles lets the request through only for the listed roles. ADMIN is
// always allowed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	allowed[models.RoleAdmin] = struct{}{}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
