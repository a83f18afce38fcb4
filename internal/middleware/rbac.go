package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnsmart-api/internal/models"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
	"github.com/noah-isme/learnsmart-api/pkg/response"
)

// RequireRoles lets the request through only when the caller holds one of
// roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, ""))
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, ""))
			return
		}
		c.Next()
	}
}
