package models

import "time"

// Certificate is issued once per (user, course) on completion and never changes afterwards.
type Certificate struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	CourseID          int64     `json:"course_id"`
	CourseTitle       string    `json:"course_title"`
	UserName          string    `json:"user_name"`
	CertificateNumber string    `json:"certificate_number"`
	IssuedAt          time.Time `json:"issued_at"`
	FilePath          string    `json:"file_path,omitempty"`
}

// CertificateDownload is a signed, expiring link to a rendered certificate.
type CertificateDownload struct {
	CertificateID string    `json:"certificate_id"`
	Token         string    `json:"token"`
	URL           string    `json:"url"`
	ExpiresAt     time.Time `json:"expires_at"`
	Ready         bool      `json:"ready"`
}
