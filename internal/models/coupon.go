package models

import "time"

// Coupon is a global discount, optionally scoped to one course.
type Coupon struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	DiscountPercent float64   `json:"discount_percent"`
	CourseID        *int64    `json:"course_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Applies reports whether the coupon may be used on courseID.
func (c *Coupon) Applies(courseID int64) bool {
	return c.CourseID == nil || *c.CourseID == courseID
}

// CreateCouponRequest is the admin payload for a new coupon.
type CreateCouponRequest struct {
	Code            string  `json:"code" validate:"required"`
	DiscountPercent float64 `json:"discount_percent"`
	CourseID        *int64  `json:"course_id"`
}

// Coupon sources reported in CouponResult.
const (
	CouponSourceCourse = "course"
	CouponSourceGlobal = "global"
)

// CouponResult is the priced outcome of applying a coupon to a course.
type CouponResult struct {
	Code            string  `json:"code"`
	Source          string  `json:"source"`
	DiscountPercent float64 `json:"discount_percent"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountedPrice float64 `json:"discounted_price"`
}
