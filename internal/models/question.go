package models

import "time"

// Question is a Q&A thread on a course.
type Question struct {
	ID        string    `json:"id"`
	CourseID  int64     `json:"course_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Question  string    `json:"question"`
	Answers   []Answer  `json:"answers"`
	Upvotes   int       `json:"upvotes"`
	CreatedAt time.Time `json:"created_at"`
}

// Answer is appended to a question thread.
type Answer struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Answer       string    `json:"answer"`
	IsInstructor bool      `json:"is_instructor"`
	Upvotes      int       `json:"upvotes"`
	CreatedAt    time.Time `json:"created_at"`
}

// TextRequest carries the body of a question or answer.
type TextRequest struct {
	Text string `json:"text" validate:"required"`
}
