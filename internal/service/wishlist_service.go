package service

import (
	"context"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
)

type wishlistRepository interface {
	Add(ctx context.Context, userID string, courseID int64) (bool, error)
	Remove(ctx context.Context, userID string, courseID int64) (bool, error)
	List(ctx context.Context, userID string) ([]int64, error)
}

type wishlistCourseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
}

// WishlistService manages per-user saved courses. Entries are independent of course and
// user records, so ids of deleted courses are kept until removed.
type WishlistService struct {
	lists   wishlistRepository
	courses wishlistCourseRepository
}

// NewWishlistService constructs a WishlistService.
func NewWishlistService(lists wishlistRepository, courses wishlistCourseRepository) *WishlistService {
	return &WishlistService{lists: lists, courses: courses}
}

// Add saves a course to the wishlist and reports whether it was newly added.
func (s *WishlistService) Add(ctx context.Context, userID string, courseID int64) (bool, error) {
	added, err := s.lists.Add(ctx, userID, courseID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to update wishlist")
	}
	return added, nil
}

// Remove drops a course from the wishlist and reports whether it was present.
func (s *WishlistService) Remove(ctx context.Context, userID string, courseID int64) (bool, error) {
	removed, err := s.lists.Remove(ctx, userID, courseID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to update wishlist")
	}
	return removed, nil
}

// Contains reports whether the course is on the user's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID string, courseID int64) (bool, error) {
	ids, err := s.lists.List(ctx, userID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to load wishlist")
	}
	for _, id := range ids {
		if id == courseID {
			return true, nil
		}
	}
	return false, nil
}

// List returns the wishlisted course ids in the order they were added.
func (s *WishlistService) List(ctx context.Context, userID string) ([]int64, error) {
	ids, err := s.lists.List(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load wishlist")
	}
	return ids, nil
}

// Courses resolves the wishlist to the courses that still exist, in wishlist order.
func (s *WishlistService) Courses(ctx context.Context, userID string) ([]models.Course, error) {
	ids, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	byID := make(map[int64]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	out := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
