package models

// EnrollmentOutcome distinguishes a first enrollment from a repeated one.
type EnrollmentOutcome string

const (
	Enrolled        EnrollmentOutcome = "enrolled"
	AlreadyEnrolled EnrollmentOutcome = "already_enrolled"
)

// EnrollmentResult is returned by enrollment and purchase operations.
type EnrollmentResult struct {
	Outcome         EnrollmentOutcome `json:"outcome"`
	UserID          string            `json:"user_id"`
	CourseID        int64             `json:"course_id"`
	EnrolledCourses []int64           `json:"enrolled_courses"`
}
