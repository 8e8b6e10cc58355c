package models

import "time"

// RefundStatus is pending until an admin resolves it once.
type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

// Refund is a student's refund request for a course.
type Refund struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	UserEmail   string       `json:"user_email"`
	CourseID    int64        `json:"course_id"`
	CourseTitle string       `json:"course_title,omitempty"`
	Reason      string       `json:"reason"`
	Status      RefundStatus `json:"status"`
	RequestedAt time.Time    `json:"requested_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy  string       `json:"resolved_by,omitempty"`
}

// RefundRequest is the HTTP payload for requesting a refund.
type RefundRequest struct {
	CourseID int64  `json:"course_id" validate:"required"`
	Reason   string `json:"reason"`
}

// ResolveRefundRequest is the admin decision.
type ResolveRefundRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}
