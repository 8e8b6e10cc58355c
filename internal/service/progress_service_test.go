package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
)

func newProgressService(f *fixture) (*ProgressService, *CertificateService) {
	certs := NewCertificateService(f.certificates, f.users, f.courses, f.events, nil, CertificateOptions{})
	return NewProgressService(f.progress, f.courses, certs, nil), certs
}

func TestProgressCompletionIssuesOneCertificate(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	f.addStudent(t, "s1", "Sam")
	svc, certs := newProgressService(f)
	ctx := context.Background()

	res, err := svc.MarkLessonComplete(ctx, "s1", 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 33, res.Progress.ProgressPercent)
	assert.Empty(t, res.Progress.CompletedSections)

	res, err = svc.MarkLessonComplete(ctx, "s1", 1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 67, res.Progress.ProgressPercent)
	assert.Equal(t, []int{0}, res.Progress.CompletedSections)
	assert.False(t, res.Progress.Completed)
	assert.Nil(t, res.Certificate)

	res, err = svc.MarkLessonComplete(ctx, "s1", 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Progress.ProgressPercent)
	assert.True(t, res.JustCompleted)
	assert.True(t, res.Progress.Completed)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, res.Certificate.ID, res.Progress.CertificateID)
	assert.Regexp(t, `^COSMOS-\d+-1-[0-9a-f]{8}$`, res.Certificate.CertificateNumber)
	completedAt := *res.Progress.CompletedAt

	for i := 0; i < 3; i++ {
		again, err := svc.MarkLessonComplete(ctx, "s1", 1, 1, 0)
		require.NoError(t, err)
		assert.False(t, again.JustCompleted)
		assert.True(t, again.Progress.Completed)
		assert.Equal(t, completedAt, *again.Progress.CompletedAt)
	}

	list, err := certs.List(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProgressNotCompletedUntilLastLesson(t *testing.T) {
	lessons := make([]models.Lesson, 200)
	for i := range lessons {
		lessons[i] = models.Lesson{Title: "Lesson"}
	}
	f := newFixture(t, publishedCourse(1, "Long Course", 20, models.Section{Title: "All", Lessons: lessons}))
	f.addStudent(t, "s1", "Sam")
	svc, _ := newProgressService(f)
	ctx := context.Background()

	var res *models.LessonCompletion
	var err error
	for i := 0; i < 199; i++ {
		res, err = svc.MarkLessonComplete(ctx, "s1", 1, 0, i)
		require.NoError(t, err)
	}
	assert.Equal(t, 99, res.Progress.ProgressPercent)
	assert.False(t, res.Progress.Completed)
	assert.False(t, res.JustCompleted)
	assert.Nil(t, res.Certificate)

	res, err = svc.MarkLessonComplete(ctx, "s1", 1, 0, 199)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Progress.ProgressPercent)
	assert.True(t, res.JustCompleted)
	assert.True(t, res.Progress.Completed)
}

func TestPercentComplete(t *testing.T) {
	assert.Equal(t, 0, percentComplete(0, 0))
	assert.Equal(t, 33, percentComplete(1, 3))
	assert.Equal(t, 99, percentComplete(199, 200))
	assert.Equal(t, 100, percentComplete(200, 200))
}

func TestProgressCompletionIsMonotonic(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	f.addStudent(t, "s1", "Sam")
	svc, _ := newProgressService(f)
	ctx := context.Background()

	for _, ref := range [][2]int{{0, 0}, {0, 1}, {1, 0}} {
		_, err := svc.MarkLessonComplete(ctx, "s1", 1, ref[0], ref[1])
		require.NoError(t, err)
	}
	stored, err := f.progress.Find(ctx, "s1", 1)
	require.NoError(t, err)
	completedAt := *stored.CompletedAt

	_, err = f.courses.Update(ctx, 1, func(c *models.Course) error {
		c.Curriculum[1].Lessons = append(c.Curriculum[1].Lessons, models.Lesson{Title: "Channels"})
		return nil
	})
	require.NoError(t, err)

	res, err := svc.MarkLessonComplete(ctx, "s1", 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 75, res.Progress.ProgressPercent)
	assert.True(t, res.Progress.Completed)
	assert.Equal(t, completedAt, *res.Progress.CompletedAt)
}

func TestProgressValidation(t *testing.T) {
	empty := publishedCourse(2, "Empty", 0, models.Section{Title: "Nothing"})
	f := newFixture(t, threeLessonCourse(1), empty)
	svc, _ := newProgressService(f)
	ctx := context.Background()

	_, err := svc.MarkLessonComplete(ctx, "s1", 2, 0, 0)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkLessonComplete(ctx, "s1", 1, 5, 0)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkLessonComplete(ctx, "s1", 1, 1, 1)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkLessonComplete(ctx, "s1", 9, 0, 0)
	assert.Equal(t, appErrors.ErrCourseNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkLessonComplete(ctx, "", 1, 0, 0)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestProgressIssuanceSkippedForUnknownUser(t *testing.T) {
	f := newFixture(t, publishedCourse(1, "Short", 0))
	svc, _ := newProgressService(f)

	res, err := svc.MarkLessonComplete(context.Background(), "ghost", 1, 0, 0)
	require.NoError(t, err)
	assert.True(t, res.JustCompleted)
	assert.Nil(t, res.Certificate)
	assert.Equal(t, models.SkipUserNotFound, res.IssuanceSkipped)
}

func TestProgressGetIsLazy(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	svc, _ := newProgressService(f)
	ctx := context.Background()

	p, err := svc.Get(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.ProgressPercent)
	assert.Empty(t, p.CompletedLessons)

	records, err := svc.ListForUser(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProgressUpdateLastLesson(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	svc, _ := newProgressService(f)
	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	p, err := svc.UpdateLastLesson(ctx, "s1", 1, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, p.LastLesson)
	assert.Equal(t, models.LessonRef{SectionIndex: 1, LessonIndex: 0}, *p.LastLesson)
	assert.Equal(t, fixed, *p.LastAccessedAt)
	assert.Equal(t, 0, p.ProgressPercent)

	_, err = svc.UpdateLastLesson(ctx, "s1", 1, 3, 0)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
