package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

var (
	adminActor   = models.Actor{UserID: "1", Role: models.RoleAdmin}
	teacherActor = models.Actor{UserID: "2", Role: models.RoleTeacher}
)

type fixture struct {
	store        *kvstore.MemoryStore
	users        *repository.UserRepository
	sessions     *repository.SessionRepository
	courses      *repository.CourseRepository
	progress     *repository.ProgressRepository
	certificates *repository.CertificateRepository
	coupons      *repository.CouponRepository
	refunds      *repository.RefundRepository
	reviews      *repository.ReviewRepository
	questions    *repository.QuestionRepository
	wishlist     *repository.WishlistRepository
	events       *recordingPublisher
}

func newFixture(t *testing.T, courses ...models.Course) *fixture {
	t.Helper()
	seeds, err := repository.BuildSeedUsers(repository.DefaultSeedAccounts, bcrypt.MinCost)
	require.NoError(t, err)

	store := kvstore.NewMemoryStore()
	defaults := repository.DefaultCourses
	if len(courses) > 0 {
		defaults = func(time.Time) []models.Course { return courses }
	}
	return &fixture{
		store:        store,
		users:        repository.NewUserRepository(store, seeds),
		sessions:     repository.NewSessionRepository(store),
		courses:      repository.NewCourseRepository(store, defaults),
		progress:     repository.NewProgressRepository(store),
		certificates: repository.NewCertificateRepository(store),
		coupons:      repository.NewCouponRepository(store),
		refunds:      repository.NewRefundRepository(store),
		reviews:      repository.NewReviewRepository(store),
		questions:    repository.NewQuestionRepository(store),
		wishlist:     repository.NewWishlistRepository(store),
		events:       &recordingPublisher{},
	}
}

// addStudent creates a student account directly in the repository.
func (f *fixture) addStudent(t *testing.T, id, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:              id,
		Name:            name,
		Email:           id + "@example.com",
		Role:            models.RoleStudent,
		EnrolledCourses: []int64{},
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func publishedCourse(id int64, title string, price float64, sections ...models.Section) models.Course {
	if len(sections) == 0 {
		sections = []models.Section{{Title: "Intro", Lessons: []models.Lesson{{Title: "Welcome", Duration: "1:00"}}}}
	}
	return models.Course{
		ID:         id,
		Title:      title,
		Category:   "Development",
		Price:      price,
		Status:     models.CoursePublished,
		Curriculum: sections,
	}
}

// threeLessonCourse has two sections holding three lessons in total.
func threeLessonCourse(id int64) models.Course {
	return publishedCourse(id, "Go Fundamentals", 50,
		models.Section{Title: "Basics", Lessons: []models.Lesson{{Title: "Types"}, {Title: "Funcs"}}},
		models.Section{Title: "Concurrency", Lessons: []models.Lesson{{Title: "Goroutines"}}},
	)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
