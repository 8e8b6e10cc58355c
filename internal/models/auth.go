package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest creates a password account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// OAuthLoginRequest carries the ID token returned by the identity provider.
type OAuthLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// OAuthProfile is the subset of provider claims used to create an account.
type OAuthProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// LoginResponse returns the issued token and the session user.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	SessionID   string      `json:"session_id"`
	ExpiresIn   int64       `json:"expires_in"`
	User        SessionUser `json:"user"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// SessionUser is the credential-free view of a user kept in a session.
type SessionUser struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Role              UserRole          `json:"role"`
	EnrolledCourses   []int64           `json:"enrolled_courses"`
	Subscription      *Subscription     `json:"subscription,omitempty"`
	ProfilePicture    string            `json:"profile_picture,omitempty"`
	ApplicationStatus ApplicationStatus `json:"application_status,omitempty"`
}

// Session is an authenticated client, stored in the sessions collection.
type Session struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	User      SessionUser `json:"user"`
	IP        string      `json:"ip,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	SessionID string   `json:"sid"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	jwt.RegisteredClaims
}

// Actor identifies who performs a role-gated operation.
type Actor struct {
	UserID string
	Role   UserRole
}

// Is reports whether the actor holds one of roles.
func (a Actor) Is(roles ...UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
