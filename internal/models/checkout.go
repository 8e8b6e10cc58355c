package models

import "time"

// PaymentRequest is sent to the payment provider.
type PaymentRequest struct {
	UserID      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

// PaymentAuthorization is the provider's approval with its transaction reference.
type PaymentAuthorization struct {
	TransactionID string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	AuthorizedAt  time.Time `json:"authorized_at"`
}

// PurchaseRequest buys one course, optionally with a coupon.
type PurchaseRequest struct {
	CourseID   int64  `json:"course_id" validate:"required"`
	CouponCode string `json:"coupon_code"`
}

// PriceBreakdown itemises a purchase.
type PriceBreakdown struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// PurchaseReceipt is returned after a purchase.
type PurchaseReceipt struct {
	Enrollment    *EnrollmentResult     `json:"enrollment"`
	Price         PriceBreakdown        `json:"price"`
	Coupon        *CouponResult         `json:"coupon,omitempty"`
	Authorization *PaymentAuthorization `json:"authorization,omitempty"`
}

// SubscriptionRequest activates a plan.
type SubscriptionRequest struct {
	Plan  string  `json:"plan" validate:"required"`
	Price float64 `json:"price" validate:"gt=0"`
}
