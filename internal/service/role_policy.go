package service

import (
	"strings"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
)

// RolePolicy decides the role of a self-registered account.
type RolePolicy func(email string) models.UserRole

// EmailRolePolicy assigns roles from substrings of the email address: "admin" grants
// admin and "teacher" grants teacher. The teacher rule is applied last and wins when both
// match. Everyone else is a student. This is a demo convenience, not an access boundary.
func EmailRolePolicy(email string) models.UserRole {
	lower := strings.ToLower(email)
	role := models.RoleStudent
	if strings.Contains(lower, "admin") {
		role = models.RoleAdmin
	}
	if strings.Contains(lower, "teacher") {
		role = models.RoleTeacher
	}
	return role
}
