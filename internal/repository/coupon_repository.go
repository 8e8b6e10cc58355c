package repository

import (
	"context"
	"strings"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// CouponRepository stores global coupons.
type CouponRepository struct {
	coupons *collection[[]models.Coupon]
}

// NewCouponRepository creates a coupon repository.
func NewCouponRepository(store kvstore.Store) *CouponRepository {
	return &CouponRepository{
		coupons: newCollection(store, KeyCoupons, func() []models.Coupon { return []models.Coupon{} }),
	}
}

// Create appends a coupon.
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.coupons.update(ctx, func(coupons *[]models.Coupon, _ bool) (bool, error) {
		*coupons = append(*coupons, *coupon)
		return true, nil
	})
}

// List returns every coupon in creation order.
func (r *CouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	return r.coupons.read(ctx)
}

// FindApplicable returns the first coupon whose code matches case-insensitively and whose
// scope admits courseID.
func (r *CouponRepository) FindApplicable(ctx context.Context, code string, courseID int64) (*models.Coupon, error) {
	coupons, err := r.coupons.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range coupons {
		if strings.EqualFold(strings.TrimSpace(coupons[i].Code), code) && coupons[i].Applies(courseID) {
			return &coupons[i], nil
		}
	}
	return nil, ErrNotFound
}
