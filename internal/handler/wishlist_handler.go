package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/service"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// WishlistHandler manages the caller's saved courses.
type WishlistHandler struct {
	service *service.WishlistService
}

// NewWishlistHandler constructs a wishlist handler.
func NewWishlistHandler(svc *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{service: svc}
}

// List godoc
// @Summary Wishlist
// @Tags Wishlist
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /wishlist [get]
func (h *WishlistHandler) List(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}

	courses, err := h.service.Courses(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, courses, map[string]interface{}{"count": len(courses)})
}

// Contains godoc
// @Summary Is course saved
// @Tags Wishlist
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /wishlist/{id} [get]
func (h *WishlistHandler) Contains(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	saved, err := h.service.Contains(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"course_id": courseID, "wishlisted": saved})
}

// Add godoc
// @Summary Save course
// @Tags Wishlist
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /wishlist/{id} [post]
func (h *WishlistHandler) Add(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	added, err := h.service.Add(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"course_id": courseID, "added": added})
}

// Remove godoc
// @Summary Unsave course
// @Tags Wishlist
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /wishlist/{id} [delete]
func (h *WishlistHandler) Remove(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	removed, err := h.service.Remove(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"course_id": courseID, "removed": removed})
}
