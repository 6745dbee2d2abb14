package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/service"
)

// AccessLog records an accesslog entry after successful requests. Failures
// inside the recorder are swallowed there, so this never affects responses.
func AccessLog(effects *service.EffectRecorder, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *int64
		if claimsValue, ok := c.Get(ContextUserKey); ok {
			if claims, ok := claimsValue.(*models.JWTClaims); ok {
				userID = &claims.UserID
			}
		}

		effects.Audit(c.Request.Context(), models.AccessLog{
			UserID: userID,
			Action: action,
			Detail: fmt.Sprintf("%s %s -> %d (%dms)",
				c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Milliseconds()),
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
	}
}
