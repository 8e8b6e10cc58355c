package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/middleware"
	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// currentClaims returns the authenticated caller or writes 401 and returns nil.
func currentClaims(c *gin.Context) *models.JWTClaims {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

// int64Param parses a numeric path parameter or writes 400 and returns false.
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+name))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func lessonIndexes(c *gin.Context, req models.LessonRequest) bool {
	if req.SectionIndex == nil || req.LessonIndex == nil || *req.SectionIndex < 0 || *req.LessonIndex < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section_index and lesson_index are required"))
		return false
	}
	return true
}

func bindFailed(c *gin.Context, message string) {
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, message))
}
