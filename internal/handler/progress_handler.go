package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// ProgressHandler tracks lesson completion for the caller.
type ProgressHandler struct {
	service *service.ProgressService
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(svc *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// Complete godoc
// @Summary Complete lesson
// @Description Mark a lesson complete; finishing the course issues a certificate
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.LessonRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /progress/{id}/complete [post]
func (h *ProgressHandler) Complete(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req models.LessonRequest
	if !bindJSON(c, &req, "section_index and lesson_index are required") || !lessonIndexes(c, req) {
		return
	}

	result, err := h.service.MarkLessonComplete(c.Request.Context(), claims.UserID, courseID, *req.SectionIndex, *req.LessonIndex)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// Get godoc
// @Summary Course progress
// @Tags Progress
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /progress/{id} [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	progress, err := h.service.Get(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, progress)
}

// LastLesson godoc
// @Summary Resume point
// @Description Record the lesson the caller is currently watching
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.LessonRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Router /progress/{id}/last-lesson [put]
func (h *ProgressHandler) LastLesson(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req models.LessonRequest
	if !bindJSON(c, &req, "section_index and lesson_index are required") || !lessonIndexes(c, req) {
		return
	}

	progress, err := h.service.UpdateLastLesson(c.Request.Context(), claims.UserID, courseID, *req.SectionIndex, *req.LessonIndex)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, progress)
}

// List godoc
// @Summary All progress
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress [get]
func (h *ProgressHandler) List(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}

	items, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, items, map[string]interface{}{"count": len(items)})
}
