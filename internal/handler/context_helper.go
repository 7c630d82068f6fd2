package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ilumap/pqr-api/internal/middleware"
	"github.com/ilumap/pqr-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}
