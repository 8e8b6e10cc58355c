package models

import "time"

// Review statuses. New reviews are approved immediately.
const (
	ReviewApproved = "approved"
	ReviewPending  = "pending"
)

// Review is a course rating left by a user.
type Review struct {
	ID        string    `json:"id"`
	CourseID  int64     `json:"course_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Status    string    `json:"status"`
	Helpful   int       `json:"helpful"`
	Reported  bool      `json:"reported"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewRequest is the HTTP payload for adding a review.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}
