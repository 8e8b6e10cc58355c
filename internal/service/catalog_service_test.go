package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
)

func catalogCourses() []models.Course {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := publishedCourse(1, "Go for Backend", 0)
	a.Description = "Free primer"
	a.Rating = 4.2
	a.Students = 10
	a.CreatedAt = base
	a.InstructorID = "2"

	b := publishedCourse(2, "Data Science", 49.99)
	b.Category = "Data"
	b.Tags = []string{"python", "pandas"}
	b.Rating = 4.8
	b.Students = 300
	b.Level = models.LevelAdvanced
	b.CreatedAt = base.Add(time.Hour)

	c := publishedCourse(3, "Design Systems", 120)
	c.Category = "Design"
	c.Rating = 4.8
	c.Students = 50
	c.CreatedAt = base.Add(2 * time.Hour)

	d := publishedCourse(4, "Hidden Draft", 75)
	d.Status = models.CoursePending
	d.InstructorID = "2"

	return []models.Course{a, b, c, d}
}

func ids(courses []models.Course) []int64 {
	out := make([]int64, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.ID)
	}
	return out
}

func TestCatalogSearchOnlyPublished(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)

	result, err := svc.Search(context.Background(), "", models.SearchFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(result))
	for _, c := range result {
		assert.Equal(t, models.CoursePublished, c.Status)
	}
}

func TestCatalogSearchFilters(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		query  string
		filter models.SearchFilter
		want   []int64
	}{
		{name: "text in tags", query: "PANDAS", want: []int64{2}},
		{name: "instructor name", query: "teacher user", want: []int64{1}},
		{name: "category all", filter: models.SearchFilter{Category: "all"}, want: []int64{1, 2, 3}},
		{name: "category exact", filter: models.SearchFilter{Category: "Design"}, want: []int64{3}},
		{name: "free", filter: models.SearchFilter{Price: models.PriceFree}, want: []int64{1}},
		{name: "paid", filter: models.SearchFilter{Price: models.PricePaid}, want: []int64{2, 3}},
		{name: "under50", filter: models.SearchFilter{Price: models.PriceUnder50}, want: []int64{2}},
		{name: "over100", filter: models.SearchFilter{Price: models.PriceOver100}, want: []int64{3}},
		{name: "min rating", filter: models.SearchFilter{MinRating: 4.5}, want: []int64{2, 3}},
		{name: "empty level is beginner", filter: models.SearchFilter{Level: models.LevelBeginner}, want: []int64{1, 3}},
		{name: "rating sort is stable", filter: models.SearchFilter{Sort: models.SortRating}, want: []int64{2, 3, 1}},
		{name: "students", filter: models.SearchFilter{Sort: models.SortStudents}, want: []int64{2, 3, 1}},
		{name: "price low", filter: models.SearchFilter{Sort: models.SortPriceLow}, want: []int64{1, 2, 3}},
		{name: "price high", filter: models.SearchFilter{Sort: models.SortPriceHigh}, want: []int64{3, 2, 1}},
		{name: "newest", filter: models.SearchFilter{Sort: models.SortNewest}, want: []int64{3, 2, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Search(ctx, tc.query, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(result))
		})
	}
}

func TestCatalogSearchRejectsUnknownSort(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)

	_, err := svc.Search(context.Background(), "", models.SearchFilter{Sort: "random"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogGetHidesUnpublished(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, models.Actor{UserID: "s1", Role: models.RoleStudent}, 4)
	assert.Equal(t, appErrors.ErrCourseNotFound.Code, appErrors.FromError(err).Code)

	course, err := svc.Get(ctx, teacherActor, 4)
	require.NoError(t, err)
	assert.Equal(t, "Teacher User", course.InstructorName)
}

func TestCatalogCreateAndModerate(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, f.events, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.Actor{UserID: "s1", Role: models.RoleStudent}, models.CreateCourseRequest{Title: "x", Category: "y"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	course, err := svc.Create(ctx, teacherActor, models.CreateCourseRequest{
		Title:          "Kubernetes",
		Category:       "DevOps",
		Price:          30,
		CurriculumText: "Setup\n-- Install | https://v/1\n-- Configure | https://v/2",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), course.ID)
	assert.Equal(t, models.CoursePending, course.Status)
	assert.Equal(t, 2, course.TotalLessons())
	assert.Contains(t, f.events.types(), events.TypeCourseSubmitted)

	_, err = svc.Approve(ctx, teacherActor, course.ID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	approved, err := svc.Approve(ctx, adminActor, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CoursePublished, approved.Status)
	require.NotNil(t, approved.PublishedAt)

	_, err = svc.Reject(ctx, adminActor, course.ID)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)

	adminCourse, err := svc.Create(ctx, adminActor, models.CreateCourseRequest{Title: "Admin Pick", Category: "Data", InstructorID: "2"})
	require.NoError(t, err)
	assert.Equal(t, models.CoursePublished, adminCourse.Status)
	assert.Equal(t, "2", adminCourse.InstructorID)
	assert.Equal(t, 1, adminCourse.TotalLessons())
}

func TestCatalogCreateRejectsEmptyCurriculum(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)

	_, err := svc.Create(context.Background(), teacherActor, models.CreateCourseRequest{
		Title:      "Empty",
		Category:   "Data",
		Curriculum: []models.Section{{Title: "Nothing"}},
	})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogDeleteOwnership(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)
	ctx := context.Background()

	err := svc.Delete(ctx, teacherActor, 2)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, teacherActor, 4))
	require.NoError(t, svc.Delete(ctx, adminActor, 2))

	err = svc.Delete(ctx, adminActor, 2)
	assert.Equal(t, appErrors.ErrCourseNotFound.Code, appErrors.FromError(err).Code)

	mine, err := svc.ListByInstructor(ctx, teacherActor)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(mine))
}

func TestCatalogStats(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)
	ctx := context.Background()
	f.addStudent(t, "s1", "Sam")
	_, err := f.users.Update(ctx, "s1", func(u *models.User) error {
		u.EnrolledCourses = []int64{1, 2}
		return nil
	})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Courses)
	assert.Equal(t, 3, stats.Published)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.TotalEnrollments)
	assert.Equal(t, 3, stats.Users)
}

func TestCatalogDefaultCoursesSeeded(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)

	result, err := svc.Search(context.Background(), "", models.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 6)
}

func TestCatalogCreateInlineCouponNeedsDiscount(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)
	ctx := context.Background()
	req := models.CreateCourseRequest{
		Title:          "Coupons",
		Category:       "Data",
		CurriculumText: "Intro\n-- Welcome",
		CouponCode:     "FREEBIE",
	}

	_, err := svc.Create(ctx, teacherActor, req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.DiscountPercent = 101
	_, err = svc.Create(ctx, teacherActor, req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.DiscountPercent = 25
	course, err := svc.Create(ctx, teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, "FREEBIE", course.CouponCode)
	assert.Equal(t, 25.0, course.DiscountPercent)

	req.CouponCode = ""
	req.DiscountPercent = 40
	plain, err := svc.Create(ctx, teacherActor, req)
	require.NoError(t, err)
	assert.Zero(t, plain.DiscountPercent)
}

func TestCatalogDeletedCourseIDNotReused(t *testing.T) {
	f := newFixture(t, catalogCourses()...)
	f.addStudent(t, "s1", "Sam")
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil)
	enrollments := NewEnrollmentService(f.users, f.courses, nil, nil, nil)
	ctx := context.Background()

	_, err := enrollments.Enroll(ctx, "s1", 3)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, adminActor, 3))
	require.NoError(t, svc.Delete(ctx, adminActor, 4))

	course, err := svc.Create(ctx, adminActor, models.CreateCourseRequest{Title: "Fresh", Category: "Data"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), course.ID)

	enrolled, err := enrollments.IsEnrolled(ctx, "s1", course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)
}
