package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/middleware"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext builds the acting-user record every mutation carries.
// Returns false when the request reached the handler without valid claims.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{
		ID:         claims.UserID,
		Name:       claims.Name,
		Role:       claims.Role,
		Department: claims.Department,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	}, true
}
