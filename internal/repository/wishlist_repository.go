package repository

import (
	"context"

	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// WishlistRepository stores a course id set per user.
type WishlistRepository struct {
	lists *collection[map[string][]int64]
}

// NewWishlistRepository creates a wishlist repository.
func NewWishlistRepository(store kvstore.Store) *WishlistRepository {
	return &WishlistRepository{
		lists: newCollection(store, KeyWishlist, func() map[string][]int64 { return map[string][]int64{} }),
	}
}

// Add inserts courseID and reports whether it was new.
func (r *WishlistRepository) Add(ctx context.Context, userID string, courseID int64) (bool, error) {
	added := false
	err := r.lists.update(ctx, func(lists *map[string][]int64, _ bool) (bool, error) {
		for _, id := range (*lists)[userID] {
			if id == courseID {
				return false, nil
			}
		}
		(*lists)[userID] = append((*lists)[userID], courseID)
		added = true
		return true, nil
	})
	return added, err
}

// Remove deletes courseID and reports whether it was present.
func (r *WishlistRepository) Remove(ctx context.Context, userID string, courseID int64) (bool, error) {
	removed := false
	err := r.lists.update(ctx, func(lists *map[string][]int64, _ bool) (bool, error) {
		ids := (*lists)[userID]
		for i, id := range ids {
			if id == courseID {
				(*lists)[userID] = append(ids[:i], ids[i+1:]...)
				removed = true
				return true, nil
			}
		}
		return false, nil
	})
	return removed, err
}

// List returns the user's wishlist in insertion order.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]int64, error) {
	lists, err := r.lists.read(ctx)
	if err != nil {
		return nil, err
	}
	return append([]int64{}, lists[userID]...), nil
}
