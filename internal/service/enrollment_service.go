package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
)

type enrollmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Update(ctx context.Context, id int64, fn func(*models.Course) error) (*models.Course, error)
}

// EnrollmentMetrics receives enrollment counters.
type EnrollmentMetrics interface {
	ObserveEnrollment(outcome models.EnrollmentOutcome)
}

// EnrollmentService grants course entitlements.
type EnrollmentService struct {
	users     enrollmentUserRepository
	courses   enrollmentCourseRepository
	publisher events.Publisher
	metrics   EnrollmentMetrics
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(users enrollmentUserRepository, courses enrollmentCourseRepository, publisher events.Publisher, metrics EnrollmentMetrics, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &EnrollmentService{users: users, courses: courses, publisher: publisher, metrics: metrics, logger: logger}
}

// Enroll adds the course to the user's enrolled set. Repeated calls leave the set
// unchanged and report AlreadyEnrolled.
func (s *EnrollmentService) Enroll(ctx context.Context, userID string, courseID int64) (*models.EnrollmentResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	if course.Status != models.CoursePublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not open for enrollment")
	}

	outcome := models.AlreadyEnrolled
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		if u.IsEnrolled(courseID) {
			return nil
		}
		u.EnrolledCourses = append(u.EnrolledCourses, courseID)
		u.UpdatedAt = time.Now().UTC()
		outcome = models.Enrolled
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to enroll user")
	}

	if outcome == models.Enrolled {
		if _, err := s.courses.Update(ctx, courseID, func(c *models.Course) error {
			c.Students++
			return nil
		}); err != nil {
			s.logger.Warn("failed to bump course student counter", zap.Int64("course_id", courseID), zap.Error(err))
		}
		s.logger.Info("user enrolled", zap.String("user_id", userID), zap.Int64("course_id", courseID))
		publishEvent(ctx, s.publisher, s.logger, events.TypeEnrollmentCreated, map[string]interface{}{
			"user_id":   userID,
			"course_id": courseID,
		})
	}
	if s.metrics != nil {
		s.metrics.ObserveEnrollment(outcome)
	}

	return &models.EnrollmentResult{
		Outcome:         outcome,
		UserID:          user.ID,
		CourseID:        courseID,
		EnrolledCourses: append([]int64{}, user.EnrolledCourses...),
	}, nil
}

// IsEnrolled reports whether the user holds an entitlement to the course.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID string, courseID int64) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, appErrors.Clone(appErrors.ErrUserNotFound, "user not found")
		}
		return false, appErrors.Internal(err, "failed to load user")
	}
	return user.IsEnrolled(courseID), nil
}
