package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/middleware"
	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// AdminHandler groups moderation endpoints for users, instructor applications, courses and coupons.
type AdminHandler struct {
	auth    *service.AuthService
	catalog *service.CatalogService
	coupons *service.CouponService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(auth *service.AuthService, catalog *service.CatalogService, coupons *service.CouponService) *AdminHandler {
	return &AdminHandler{auth: auth, catalog: catalog, coupons: coupons}
}

// Users godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, users, map[string]interface{}{"count": len(users)})
}

// DeleteUser godoc
// @Summary Delete user
// @Description Removes the account and every session bound to it
// @Tags Admin
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.auth.DeleteUser(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Applications godoc
// @Summary Instructor applications
// @Tags Admin
// @Produce json
// @Param status query string false "pending|approved|rejected"
// @Success 200 {object} response.Envelope
// @Router /admin/instructor-applications [get]
func (h *AdminHandler) Applications(c *gin.Context) {
	users, err := h.auth.ListInstructorApplications(c.Request.Context(), middleware.Actor(c), models.ApplicationStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, users, map[string]interface{}{"count": len(users)})
}

// ApproveApplication godoc
// @Summary Approve instructor
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/instructor-applications/{id}/approve [post]
func (h *AdminHandler) ApproveApplication(c *gin.Context) {
	user, err := h.auth.ApproveInstructorApplication(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, user)
}

// RejectApplication godoc
// @Summary Reject instructor
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body models.RejectApplicationRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/instructor-applications/{id}/reject [post]
func (h *AdminHandler) RejectApplication(c *gin.Context) {
	var req models.RejectApplicationRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid rejection payload") {
		return
	}

	user, err := h.auth.RejectInstructorApplication(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, user)
}

// Courses godoc
// @Summary All courses
// @Tags Admin
// @Produce json
// @Param status query string false "draft|pending|published|rejected"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *AdminHandler) Courses(c *gin.Context) {
	courses, err := h.catalog.ListAll(c.Request.Context(), middleware.Actor(c), models.CourseStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, courses, map[string]interface{}{"count": len(courses)})
}

// ApproveCourse godoc
// @Summary Publish course
// @Tags Admin
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{id}/approve [post]
func (h *AdminHandler) ApproveCourse(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	course, err := h.catalog.Approve(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, course)
}

// RejectCourse godoc
// @Summary Reject course
// @Tags Admin
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{id}/reject [post]
func (h *AdminHandler) RejectCourse(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	course, err := h.catalog.Reject(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, course)
}

// Stats godoc
// @Summary Catalog statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.catalog.Stats(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stats)
}

// Coupons godoc
// @Summary Global coupons
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/coupons [get]
func (h *AdminHandler) Coupons(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, coupons, map[string]interface{}{"count": len(coupons)})
}

// CreateCoupon godoc
// @Summary Create coupon
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateCouponRequest true "Coupon"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/coupons [post]
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req models.CreateCouponRequest
	if !bindJSON(c, &req, "invalid coupon payload") {
		return
	}

	coupon, err := h.coupons.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, coupon)
}
