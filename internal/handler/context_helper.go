package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnsmart-api/internal/middleware"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/service"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
	"github.com/noah-isme/learnsmart-api/pkg/response"
)

// requireClaims returns the authenticated caller or writes 401.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, ""))
		return nil, false
	}
	return claims, true
}

func requireActor(c *gin.Context) (service.Actor, bool) {
	claims, ok := requireClaims(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: claims.UserID, Role: claims.Role}, true
}

// idParam parses a positive integer path parameter or writes 400.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Invalid "+name))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into dest or writes 400.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid request body"))
		return false
	}
	return true
}
