package service

import (
	"strings"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
)

const defaultLessonDuration = "5:00"

// ParseCurriculum turns the plain-text curriculum of the course form into sections.
//
//	Getting Started
//	-- Install Go | https://go.dev/dl
//	-- Hello World
//
// Lines starting with "--" are lessons of the current section ("Introduction" when none
// was opened); any other non-blank line opens a section. Blank input yields a single
// "Course Content" section holding a "Welcome" lesson.
func ParseCurriculum(text string) []models.Section {
	sections := make([]models.Section, 0)
	current := -1

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			sections = append(sections, models.Section{Title: line, Lessons: []models.Lesson{}})
			current = len(sections) - 1
			continue
		}
		if current < 0 {
			sections = append(sections, models.Section{Title: "Introduction", Lessons: []models.Lesson{}})
			current = len(sections) - 1
		}
		parts := strings.Split(line[2:], "|")
		lesson := models.Lesson{Title: strings.TrimSpace(parts[0]), Duration: defaultLessonDuration}
		if len(parts) > 1 {
			lesson.URL = strings.TrimSpace(parts[1])
		}
		sections[current].Lessons = append(sections[current].Lessons, lesson)
	}

	if len(sections) == 0 {
		sections = append(sections, models.Section{
			Title:   "Course Content",
			Lessons: []models.Lesson{{Title: "Welcome", Duration: "1:00"}},
		})
	}
	return sections
}
