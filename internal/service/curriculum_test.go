package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurriculum(t *testing.T) {
	sections := ParseCurriculum("Getting Started\n-- Install Go | https://go.dev/dl\n-- Hello World\n\nAdvanced\n-- Generics")
	require.Len(t, sections, 2)
	assert.Equal(t, "Getting Started", sections[0].Title)
	require.Len(t, sections[0].Lessons, 2)
	assert.Equal(t, "Install Go", sections[0].Lessons[0].Title)
	assert.Equal(t, "https://go.dev/dl", sections[0].Lessons[0].URL)
	assert.Equal(t, "5:00", sections[0].Lessons[0].Duration)
	assert.Empty(t, sections[0].Lessons[1].URL)
	assert.Equal(t, "Generics", sections[1].Lessons[0].Title)
}

func TestParseCurriculumLessonBeforeSection(t *testing.T) {
	sections := ParseCurriculum("-- Orientation")
	require.Len(t, sections, 1)
	assert.Equal(t, "Introduction", sections[0].Title)
	assert.Equal(t, "Orientation", sections[0].Lessons[0].Title)
}

func TestParseCurriculumEmpty(t *testing.T) {
	sections := ParseCurriculum("  \n ")
	require.Len(t, sections, 1)
	assert.Equal(t, "Course Content", sections[0].Title)
	require.Len(t, sections[0].Lessons, 1)
	assert.Equal(t, "Welcome", sections[0].Lessons[0].Title)
	assert.Equal(t, "1:00", sections[0].Lessons[0].Duration)
}

func TestEmailRolePolicy(t *testing.T) {
	assert.Equal(t, "student", string(EmailRolePolicy("ann@x.com")))
	assert.Equal(t, "admin", string(EmailRolePolicy("Admin@x.com")))
	assert.Equal(t, "teacher", string(EmailRolePolicy("teacher@x.com")))
	assert.Equal(t, "teacher", string(EmailRolePolicy("admin-teacher@x.com")))
}
