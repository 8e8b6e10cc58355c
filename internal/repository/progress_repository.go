package repository

import (
	"context"
	"sort"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// ProgressRepository stores progress records keyed by "<userID>_<courseID>".
type ProgressRepository struct {
	progress *collection[map[string]models.Progress]
}

// NewProgressRepository creates a progress repository.
func NewProgressRepository(store kvstore.Store) *ProgressRepository {
	return &ProgressRepository{
		progress: newCollection(store, KeyProgress, func() map[string]models.Progress { return map[string]models.Progress{} }),
	}
}

// Find returns the stored record or ErrNotFound.
func (r *ProgressRepository) Find(ctx context.Context, userID string, courseID int64) (*models.Progress, error) {
	all, err := r.progress.read(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := all[models.ProgressKey(userID, courseID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Upsert applies fn to the stored record, or to init() when none exists, and saves it.
func (r *ProgressRepository) Upsert(ctx context.Context, userID string, courseID int64, init func() models.Progress, fn func(*models.Progress) error) (*models.Progress, error) {
	var out models.Progress
	key := models.ProgressKey(userID, courseID)
	err := r.progress.update(ctx, func(all *map[string]models.Progress, _ bool) (bool, error) {
		p, ok := (*all)[key]
		if !ok {
			p = init()
		}
		if err := fn(&p); err != nil {
			return false, err
		}
		(*all)[key] = p
		out = p
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListForUser returns the user's records ordered by course id.
func (r *ProgressRepository) ListForUser(ctx context.Context, userID string) ([]models.Progress, error) {
	all, err := r.progress.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Progress, 0)
	for _, p := range all {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}
