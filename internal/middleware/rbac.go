package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/response"
)

// RequireRoles blocks requests whose account role is not in the allowed set.
// It must run after JWT.
func RequireRoles(roles ...models.AccountRole) gin.HandlerFunc {
	allowed := make(map[models.AccountRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the JWT claims stored by JWT, or nil when absent.
func CurrentClaims(c *gin.Context) *models.JWTClaims {
	claimsValue, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := claimsValue.(*models.JWTClaims)
	return claims
}
