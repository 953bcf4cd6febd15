package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/paradisefm/facilities-api/internal/middleware"
	"github.com/paradisefm/facilities-api/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil on
// routes behind OptionalJWT when no valid token was sent.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	if claims, ok := value.(*models.JWTClaims); ok {
		return claims
	}
	return nil
}
