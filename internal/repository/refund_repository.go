package repository

import (
	"context"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// RefundRepository stores refund requests.
type RefundRepository struct {
	refunds *collection[[]models.Refund]
}

// NewRefundRepository creates a refund repository.
func NewRefundRepository(store kvstore.Store) *RefundRepository {
	return &RefundRepository{
		refunds: newCollection(store, KeyRefunds, func() []models.Refund { return []models.Refund{} }),
	}
}

// Create appends a refund.
func (r *RefundRepository) Create(ctx context.Context, refund *models.Refund) error {
	return r.refunds.update(ctx, func(refunds *[]models.Refund, _ bool) (bool, error) {
		*refunds = append(*refunds, *refund)
		return true, nil
	})
}

// FindByID returns a refund by identifier.
func (r *RefundRepository) FindByID(ctx context.Context, id string) (*models.Refund, error) {
	refunds, err := r.refunds.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range refunds {
		if refunds[i].ID == id {
			return &refunds[i], nil
		}
	}
	return nil, ErrNotFound
}

// Update applies fn to the stored refund and persists the result.
func (r *RefundRepository) Update(ctx context.Context, id string, fn func(*models.Refund) error) (*models.Refund, error) {
	var out models.Refund
	err := r.refunds.update(ctx, func(refunds *[]models.Refund, _ bool) (bool, error) {
		for i := range *refunds {
			if (*refunds)[i].ID != id {
				continue
			}
			candidate := (*refunds)[i]
			if err := fn(&candidate); err != nil {
				return false, err
			}
			(*refunds)[i] = candidate
			out = candidate
			return true, nil
		}
		return false, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns refunds, optionally filtered by status, in request order.
func (r *RefundRepository) List(ctx context.Context, status models.RefundStatus) ([]models.Refund, error) {
	refunds, err := r.refunds.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Refund, 0, len(refunds))
	for _, rf := range refunds {
		if status == "" || rf.Status == status {
			out = append(out, rf)
		}
	}
	return out, nil
}
