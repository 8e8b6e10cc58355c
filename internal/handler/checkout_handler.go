package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// CheckoutHandler exposes coupon pricing, purchases and subscriptions.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	coupons  *service.CouponService
}

// NewCheckoutHandler constructs a checkout handler.
func NewCheckoutHandler(checkout *service.CheckoutService, coupons *service.CouponService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, coupons: coupons}
}

type applyCouponRequest struct {
	CourseID int64  `json:"course_id" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// ApplyCoupon godoc
// @Summary Apply coupon
// @Description Price a course with a course-specific or global coupon
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body applyCouponRequest true "Coupon"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /coupons/apply [post]
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if !bindJSON(c, &req, "invalid coupon payload") {
		return
	}

	result, err := h.coupons.Apply(c.Request.Context(), req.CourseID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// Quote godoc
// @Summary Price breakdown
// @Tags Checkout
// @Produce json
// @Param id path int true "Course ID"
// @Param coupon query string false "Coupon code"
// @Success 200 {object} response.Envelope
// @Router /checkout/quote/{id} [get]
func (h *CheckoutHandler) Quote(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	price, coupon, err := h.checkout.Quote(c.Request.Context(), id, c.Query("coupon"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"price": price, "coupon": coupon})
}

// Purchase godoc
// @Summary Purchase course
// @Description Charge the simulated provider and enroll the caller
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body models.PurchaseRequest true "Purchase"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /checkout/purchase [post]
func (h *CheckoutHandler) Purchase(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}

	var req models.PurchaseRequest
	if !bindJSON(c, &req, "invalid purchase payload") {
		return
	}

	receipt, err := h.checkout.PurchaseCourse(c.Request.Context(), claims.UserID, req.CourseID, req.CouponCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, receipt)
}

// Subscribe godoc
// @Summary Activate subscription
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body models.SubscriptionRequest true "Plan"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Router /checkout/subscription [post]
func (h *CheckoutHandler) Subscribe(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}

	var req models.SubscriptionRequest
	if !bindJSON(c, &req, "invalid subscription payload") {
		return
	}

	sub, err := h.checkout.ActivateSubscription(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, sub)
}
