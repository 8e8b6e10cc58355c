package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin             UserRole = "admin"
	RoleTeacher           UserRole = "teacher"
	RoleStudent           UserRole = "student"
	RoleInstructorPending UserRole = "instructor_pending"
)

// ApplicationStatus tracks an instructor application. Approved and rejected are terminal.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Terminal reports whether the application has been decided.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// Auth providers recorded on the user.
const (
	AuthProviderPassword = "password"
	AuthProviderGoogle   = "google"
)

// User is a marketplace account stored in the users collection.
type User struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	PasswordHash    string        `json:"password_hash,omitempty"`
	Role            UserRole      `json:"role"`
	EnrolledCourses []int64       `json:"enrolled_courses"`
	Subscription    *Subscription `json:"subscription,omitempty"`
	ProfilePicture  string        `json:"profile_picture,omitempty"`
	AuthProvider    string        `json:"auth_provider,omitempty"`

	Phone             string            `json:"phone,omitempty"`
	ProfessionalTitle string            `json:"professional_title,omitempty"`
	Experience        string            `json:"experience,omitempty"`
	Expertise         string            `json:"expertise,omitempty"`
	Bio               string            `json:"bio,omitempty"`
	Documents         []string          `json:"documents,omitempty"`
	ApplicationStatus ApplicationStatus `json:"application_status,omitempty"`
	AppliedAt         *time.Time        `json:"applied_at,omitempty"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
	RejectedAt        *time.Time        `json:"rejected_at,omitempty"`
	RejectionReason   string            `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEnrolled reports whether courseID is in the user's enrolled set.
func (u *User) IsEnrolled(courseID int64) bool {
	for _, id := range u.EnrolledCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

// Public returns the user without the credential hash, as stored in sessions.
func (u *User) Public() SessionUser {
	enrolled := make([]int64, len(u.EnrolledCourses))
	copy(enrolled, u.EnrolledCourses)
	return SessionUser{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		EnrolledCourses:   enrolled,
		Subscription:      u.Subscription,
		ProfilePicture:    u.ProfilePicture,
		ApplicationStatus: u.ApplicationStatus,
	}
}

// Subscription is the optional recurring plan attached to a user.
type Subscription struct {
	Plan            string    `json:"plan"`
	Price           float64   `json:"price"`
	Status          string    `json:"status"`
	StartDate       time.Time `json:"start_date"`
	NextBillingDate time.Time `json:"next_billing_date"`
}

// SubscriptionActive is the status set on activation.
const SubscriptionActive = "active"

// UpdateProfileRequest changes the display name and email of the caller.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

// InstructorApplicationRequest is the public instructor sign-up form.
type InstructorApplicationRequest struct {
	Name              string   `json:"name" validate:"required"`
	Email             string   `json:"email" validate:"required,email"`
	Password          string   `json:"password" validate:"required,min=4"`
	Phone             string   `json:"phone"`
	ProfessionalTitle string   `json:"professional_title"`
	Experience        string   `json:"experience"`
	Expertise         string   `json:"expertise"`
	Bio               string   `json:"bio"`
	Documents         []string `json:"documents"`
}

// RejectApplicationRequest carries the admin's reason.
type RejectApplicationRequest struct {
	Reason string `json:"reason"`
}
