package models

import (
	"fmt"
	"time"
)

// ProgressKey builds the progress collection key for (userID, courseID).
func ProgressKey(userID string, courseID int64) string {
	return fmt.Sprintf("%s_%d", userID, courseID)
}

// LessonKey builds the completed-lesson key for a section and lesson index.
func LessonKey(section, lesson int) string {
	return fmt.Sprintf("%d_%d", section, lesson)
}

// LessonRef points at a lesson inside a course curriculum.
type LessonRef struct {
	SectionIndex int `json:"section_index"`
	LessonIndex  int `json:"lesson_index"`
}

// Progress is the per-user, per-course completion record.
type Progress struct {
	UserID            string     `json:"user_id"`
	CourseID          int64      `json:"course_id"`
	CompletedLessons  []string   `json:"completed_lessons"`
	CompletedSections []int      `json:"completed_sections"`
	ProgressPercent   int        `json:"progress_percent"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	LastLesson        *LessonRef `json:"last_lesson,omitempty"`
	EnrolledAt        time.Time  `json:"enrolled_at"`
	LastAccessedAt    *time.Time `json:"last_accessed_at,omitempty"`
	CertificateID     string     `json:"certificate_id,omitempty"`
}

// HasLesson reports whether key is already completed.
func (p *Progress) HasLesson(key string) bool {
	for _, k := range p.CompletedLessons {
		if k == key {
			return true
		}
	}
	return false
}

// HasSection reports whether the section index is already complete.
func (p *Progress) HasSection(index int) bool {
	for _, s := range p.CompletedSections {
		if s == index {
			return true
		}
	}
	return false
}

// Reasons a completed course did not receive a certificate.
const (
	SkipCourseNotFound = "course_not_found"
	SkipUserNotFound   = "user_not_found"
)

// LessonCompletion is the outcome of marking a lesson complete.
type LessonCompletion struct {
	Progress        *Progress    `json:"progress"`
	JustCompleted   bool         `json:"just_completed"`
	Certificate     *Certificate `json:"certificate,omitempty"`
	IssuanceSkipped string       `json:"issuance_skipped,omitempty"`
}

// LessonRequest identifies a lesson in HTTP payloads.
type LessonRequest struct {
	SectionIndex *int `json:"section_index" validate:"required,gte=0"`
	LessonIndex  *int `json:"lesson_index" validate:"required,gte=0"`
}
