package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-affairs-api/internal/middleware"
	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
	"github.com/noah-isme/student-affairs-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// requireCaller writes 401 and returns false when the request is anonymous.
func requireCaller(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
