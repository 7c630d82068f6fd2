package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ilumap/pqr-api/internal/service"
	"github.com/ilumap/pqr-api/pkg/response"
)

// RequireCapability rejects callers whose role is not granted cap.
// It must run after JWT.
func RequireCapability(capability service.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.Authorize(Claims(c), capability); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}
