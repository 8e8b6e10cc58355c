package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/middleware"
	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// CourseHandler serves the public catalog and instructor course management.
type CourseHandler struct {
	catalog    *service.CatalogService
	enrollment *service.EnrollmentService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(catalog *service.CatalogService, enrollment *service.EnrollmentService) *CourseHandler {
	return &CourseHandler{catalog: catalog, enrollment: enrollment}
}

// Search godoc
// @Summary Search courses
// @Description Search published courses by text with optional filters and sorting
// @Tags Courses
// @Produce json
// @Param q query string false "Search text"
// @Param category query string false "Category"
// @Param price query string false "free|paid|under50|50-100|over100"
// @Param min_rating query number false "Minimum rating"
// @Param level query string false "Beginner|Intermediate|Advanced"
// @Param sort query string false "rating|students|price-low|price-high|newest"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) Search(c *gin.Context) {
	var filter models.SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search filter"))
		return
	}

	courses, err := h.catalog.Search(c.Request.Context(), c.Query("q"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, courses, map[string]interface{}{"count": len(courses)})
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	course, err := h.catalog.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, course)
}

// Create godoc
// @Summary Submit course
// @Description Teachers submit courses for review, admins publish directly
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body models.CreateCourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req models.CreateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}

	course, err := h.catalog.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, course)
}

// Mine godoc
// @Summary Instructor courses
// @Description List courses owned by the calling instructor in any status
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructor/courses [get]
func (h *CourseHandler) Mine(c *gin.Context) {
	courses, err := h.catalog.ListByInstructor(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, courses, map[string]interface{}{"count": len(courses)})
}

// Delete godoc
// @Summary Delete course
// @Description Owners and admins may delete a course
// @Tags Courses
// @Param id path int true "Course ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Enroll godoc
// @Summary Enroll in course
// @Description Enrollment is idempotent; a repeated call reports already_enrolled
// @Tags Enrollment
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	result, err := h.enrollment.Enroll(c.Request.Context(), claims.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// Enrollment godoc
// @Summary Enrollment status
// @Tags Enrollment
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollment [get]
func (h *CourseHandler) Enrollment(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	enrolled, err := h.enrollment.IsEnrolled(c.Request.Context(), claims.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"course_id": id, "enrolled": enrolled})
}
