package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByCourse(ctx context.Context, courseID int64, status string) ([]models.Review, error)
}

type reviewCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Update(ctx context.Context, id int64, fn func(*models.Course) error) (*models.Course, error)
}

// ReviewService stores course reviews and keeps the course rating aggregate current.
type ReviewService struct {
	reviews reviewRepository
	courses reviewCourseRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews reviewRepository, courses reviewCourseRepository, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{reviews: reviews, courses: courses, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Add records an approved review and recomputes the course rating.
func (s *ReviewService) Add(ctx context.Context, courseID int64, userID, userName string, rating int, comment string) (*models.Review, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if rating < 1 || rating > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		UserID:    userID,
		UserName:  userName,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		Status:    models.ReviewApproved,
		CreatedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, appErrors.Internal(err, "failed to save review")
	}
	if err := s.recomputeRating(ctx, courseID); err != nil {
		s.logger.Warn("failed to update course rating", zap.Int64("course_id", courseID), zap.Error(err))
	}
	return review, nil
}

// List returns the approved reviews of a course.
func (s *ReviewService) List(ctx context.Context, courseID int64) ([]models.Review, error) {
	reviews, err := s.reviews.ListByCourse(ctx, courseID, models.ReviewApproved)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reviews")
	}
	return reviews, nil
}

// recomputeRating reads the approved reviews while holding the course write, so concurrent
// adds always leave the aggregate of the latest review set.
func (s *ReviewService) recomputeRating(ctx context.Context, courseID int64) error {
	_, err := s.courses.Update(ctx, courseID, func(c *models.Course) error {
		reviews, err := s.reviews.ListByCourse(ctx, courseID, models.ReviewApproved)
		if err != nil {
			return err
		}
		ratings := make([]int, len(reviews))
		for i, r := range reviews {
			ratings[i] = r.Rating
		}
		c.Rating = AverageRating(ratings)
		c.RatingCount = len(reviews)
		return nil
	})
	return err
}

// AverageRating returns the mean of ratings rounded to one decimal, or 0 for none.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range ratings {
		sum = sum.Add(decimal.NewFromInt(int64(r)))
	}
	mean, _ := sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(1).Float64()
	return mean
}
