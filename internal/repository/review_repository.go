package repository

import (
	"context"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// ReviewRepository stores course reviews in insertion order.
type ReviewRepository struct {
	reviews *collection[[]models.Review]
}

// NewReviewRepository creates a review repository.
func NewReviewRepository(store kvstore.Store) *ReviewRepository {
	return &ReviewRepository{
		reviews: newCollection(store, KeyReviews, func() []models.Review { return []models.Review{} }),
	}
}

// Create appends a review.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.reviews.update(ctx, func(reviews *[]models.Review, _ bool) (bool, error) {
		*reviews = append(*reviews, *review)
		return true, nil
	})
}

// ListByCourse returns reviews for a course, optionally restricted to one status.
func (r *ReviewRepository) ListByCourse(ctx context.Context, courseID int64, status string) ([]models.Review, error) {
	reviews, err := r.reviews.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Review, 0)
	for _, rv := range reviews {
		if rv.CourseID == courseID && (status == "" || rv.Status == status) {
			out = append(out, rv)
		}
	}
	return out, nil
}
