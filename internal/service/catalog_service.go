package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
)

type catalogCourseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id int64, fn func(*models.Course) error) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

type catalogUserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CatalogService owns course records, moderation and search.
type CatalogService struct {
	courses   catalogCourseRepository
	users     catalogUserRepository
	publisher events.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	cache     *CacheService
	cacheTTL  time.Duration
	now       func() time.Time
}

const searchCachePrefix = "catalog:search:"

// NewCatalogService constructs a CatalogService.
func NewCatalogService(courses catalogCourseRepository, users catalogUserRepository, publisher events.Publisher, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CatalogService{
		courses:   courses,
		users:     users,
		publisher: publisher,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithCache enables read-through caching of search results. Entries are dropped whenever
// the catalog changes and otherwise live for ttl.
func (s *CatalogService) WithCache(cache *CacheService, ttl time.Duration) *CatalogService {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// Search returns published courses matching the query and filter.
func (s *CatalogService) Search(ctx context.Context, query string, filter models.SearchFilter) ([]models.Course, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, validationError(err, "invalid search filter")
	}

	key := searchCacheKey(query, filter)
	var cached []models.Course
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	result, err := s.search(ctx, query, filter)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

func searchCacheKey(query string, filter models.SearchFilter) string {
	return fmt.Sprintf("%s%q|%s|%s|%g|%s|%s", searchCachePrefix,
		strings.ToLower(strings.TrimSpace(query)), filter.Category, filter.Price, filter.MinRating, filter.Level, filter.Sort)
}

// InvalidateSearch drops every cached search result.
func (s *CatalogService) InvalidateSearch(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, searchCachePrefix+"*")
}

func (s *CatalogService) search(ctx context.Context, query string, filter models.SearchFilter) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	names, err := s.instructorNames(ctx)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(query))
	result := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if c.Status != models.CoursePublished {
			continue
		}
		resolveInstructor(&c, names)
		if term != "" && !matchesText(c, term) {
			continue
		}
		if filter.Category != "" && filter.Category != models.FilterAll && c.Category != filter.Category {
			continue
		}
		if !inPriceBucket(c.Price, filter.Price) {
			continue
		}
		if filter.MinRating > 0 && c.Rating < filter.MinRating {
			continue
		}
		if filter.Level != "" && filter.Level != models.FilterAll && c.EffectiveLevel() != filter.Level {
			continue
		}
		result = append(result, c)
	}

	sortCourses(result, filter.Sort)
	return result, nil
}

func matchesText(c models.Course, term string) bool {
	if strings.Contains(strings.ToLower(c.Title), term) ||
		strings.Contains(strings.ToLower(c.Description), term) ||
		strings.Contains(strings.ToLower(c.InstructorName), term) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func inPriceBucket(price float64, bucket string) bool {
	switch bucket {
	case models.PriceFree:
		return price == 0
	case models.PricePaid:
		return price > 0
	case models.PriceUnder50:
		return price > 0 && price < 50
	case models.Price50To100:
		return price >= 50 && price <= 100
	case models.PriceOver100:
		return price > 100
	default:
		return true
	}
}

func sortCourses(courses []models.Course, order string) {
	var less func(a, b models.Course) bool
	switch order {
	case models.SortRating:
		less = func(a, b models.Course) bool { return a.Rating > b.Rating }
	case models.SortStudents:
		less = func(a, b models.Course) bool { return a.Students > b.Students }
	case models.SortPriceLow:
		less = func(a, b models.Course) bool { return a.Price < b.Price }
	case models.SortPriceHigh:
		less = func(a, b models.Course) bool { return a.Price > b.Price }
	case models.SortNewest:
		less = func(a, b models.Course) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		return
	}
	sort.SliceStable(courses, func(i, j int) bool { return less(courses[i], courses[j]) })
}

// Get returns a course. Unpublished courses are only visible to admins and their instructor.
func (s *CatalogService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapCourseErr(err, "failed to load course")
	}
	if course.Status != models.CoursePublished && !actor.Is(models.RoleAdmin) && (actor.UserID == "" || course.InstructorID != actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
	}
	names, err := s.instructorNames(ctx)
	if err != nil {
		return nil, err
	}
	resolveInstructor(course, names)
	return course, nil
}

// ListAll returns every course regardless of status, optionally filtered by status.
func (s *CatalogService) ListAll(ctx context.Context, actor models.Actor, status models.CourseStatus) ([]models.Course, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.list(ctx, func(c models.Course) bool { return status == "" || c.Status == status })
}

// ListByInstructor returns the courses a teacher owns.
func (s *CatalogService) ListByInstructor(ctx context.Context, actor models.Actor) ([]models.Course, error) {
	if err := authorize(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.list(ctx, func(c models.Course) bool { return c.InstructorID == actor.UserID })
}

func (s *CatalogService) list(ctx context.Context, keep func(models.Course) bool) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	names, err := s.instructorNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if keep(c) {
			resolveInstructor(&c, names)
			out = append(out, c)
		}
	}
	return out, nil
}

// Create adds a course. Teacher submissions wait for moderation; admin additions are
// published immediately.
func (s *CatalogService) Create(ctx context.Context, actor models.Actor, req models.CreateCourseRequest) (*models.Course, error) {
	if err := authorize(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}

	curriculum := req.Curriculum
	if len(curriculum) == 0 {
		curriculum = ParseCurriculum(req.CurriculumText)
	}
	course := &models.Course{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Image:            req.Image,
		Category:         req.Category,
		Subcategory:      req.Subcategory,
		Price:            req.Price,
		OriginalPrice:    req.OriginalPrice,
		Level:            req.Level,
		Language:         req.Language,
		Tags:             req.Tags,
		Curriculum:       curriculum,
		CouponCode:       strings.TrimSpace(req.CouponCode),
		DiscountPercent:  req.DiscountPercent,
	}
	if course.TotalLessons() == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course must contain at least one lesson")
	}
	if course.CouponCode != "" && (course.DiscountPercent < 1 || course.DiscountPercent > 100) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount percent must be between 1 and 100 when a coupon code is set")
	}
	if course.CouponCode == "" {
		course.DiscountPercent = 0
	}
	if course.OriginalPrice == 0 {
		course.OriginalPrice = course.Price
	}
	if course.Level == "" {
		course.Level = models.LevelBeginner
	}
	if course.Language == "" {
		course.Language = "English"
	}

	now := s.now()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.InstructorID = actor.UserID
	if actor.Is(models.RoleAdmin) {
		if req.InstructorID != "" {
			if _, err := s.users.FindByID(ctx, req.InstructorID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, appErrors.Clone(appErrors.ErrUserNotFound, "instructor not found")
				}
				return nil, appErrors.Internal(err, "failed to load instructor")
			}
			course.InstructorID = req.InstructorID
		}
		course.Status = models.CoursePublished
		course.PublishedAt = &now
	} else {
		course.Status = models.CoursePending
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to create course")
	}

	s.InvalidateSearch(ctx)
	s.logger.Info("course created",
		zap.Int64("course_id", course.ID),
		zap.String("status", string(course.Status)),
		zap.String("actor_id", actor.UserID))
	if course.Status == models.CoursePending {
		publishEvent(ctx, s.publisher, s.logger, events.TypeCourseSubmitted, map[string]interface{}{
			"course_id":     course.ID,
			"instructor_id": course.InstructorID,
		})
	}
	return course, nil
}

// Approve publishes a pending course.
func (s *CatalogService) Approve(ctx context.Context, actor models.Actor, id int64) (*models.Course, error) {
	return s.moderate(ctx, actor, id, func(c *models.Course, now time.Time) {
		c.Status = models.CoursePublished
		c.PublishedAt = &now
	})
}

// Reject declines a pending course.
func (s *CatalogService) Reject(ctx context.Context, actor models.Actor, id int64) (*models.Course, error) {
	return s.moderate(ctx, actor, id, func(c *models.Course, now time.Time) {
		c.Status = models.CourseRejected
		c.RejectedAt = &now
	})
}

func (s *CatalogService) moderate(ctx context.Context, actor models.Actor, id int64, apply func(*models.Course, time.Time)) (*models.Course, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	course, err := s.courses.Update(ctx, id, func(c *models.Course) error {
		if c.Status != models.CoursePending {
			return appErrors.Clone(appErrors.ErrTerminalState, "course is not awaiting moderation")
		}
		now := s.now()
		apply(c, now)
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.mapCourseErr(err, "failed to moderate course")
	}
	s.InvalidateSearch(ctx)
	s.logger.Info("course moderated", zap.Int64("course_id", id), zap.String("status", string(course.Status)))
	return course, nil
}

// Delete removes a course. Teachers may only delete their own.
func (s *CatalogService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := authorize(actor, models.RoleAdmin, models.RoleTeacher); err != nil {
		return err
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return s.mapCourseErr(err, "failed to load course")
	}
	if !actor.Is(models.RoleAdmin) && course.InstructorID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the course instructor can delete this course")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return s.mapCourseErr(err, "failed to delete course")
	}
	s.InvalidateSearch(ctx)
	s.logger.Info("course deleted", zap.Int64("course_id", id), zap.String("actor_id", actor.UserID))
	return nil
}

// Stats summarises the catalog.
func (s *CatalogService) Stats(ctx context.Context, actor models.Actor) (*models.CatalogStats, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load users")
	}
	stats := &models.CatalogStats{Courses: len(courses), Users: len(users)}
	for _, c := range courses {
		switch c.Status {
		case models.CoursePublished:
			stats.Published++
		case models.CoursePending:
			stats.Pending++
		}
	}
	for _, u := range users {
		stats.TotalEnrollments += len(u.EnrolledCourses)
	}
	return stats, nil
}

func (s *CatalogService) instructorNames(ctx context.Context) (map[string]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load instructors")
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// resolveInstructor fills the display name from the instructor id, keeping the stored
// name for legacy catalog entries that have no id.
func resolveInstructor(c *models.Course, names map[string]string) {
	if c.InstructorID == "" {
		return
	}
	if name, ok := names[c.InstructorID]; ok {
		c.InstructorName = name
	}
}

func (s *CatalogService) mapCourseErr(err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
	default:
		return appErrors.Internal(err, message)
	}
}
