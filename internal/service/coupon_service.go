package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
)

type couponCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type couponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	List(ctx context.Context) ([]models.Coupon, error)
	FindApplicable(ctx context.Context, code string, courseID int64) (*models.Coupon, error)
}

// CouponService resolves and manages discount codes.
type CouponService struct {
	courses   couponCourseRepository
	coupons   couponRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCouponService constructs a CouponService.
func NewCouponService(courses couponCourseRepository, coupons couponRepository, validate *validator.Validate, logger *zap.Logger) *CouponService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CouponService{courses: courses, coupons: coupons, validator: validate, logger: logger}
}

// Apply prices a course with a coupon code. The course's own code is checked first,
// then global coupons whose scope admits the course. Codes compare case-insensitively.
func (s *CouponService) Apply(ctx context.Context, courseID int64, code string) (*models.CouponResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCoupon, "enter a coupon code")
	}

	if course.CouponCode != "" && strings.EqualFold(strings.TrimSpace(course.CouponCode), code) {
		return priceWithCoupon(course, course.CouponCode, models.CouponSourceCourse, course.DiscountPercent), nil
	}

	coupon, err := s.coupons.FindApplicable(ctx, code, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCoupon, "invalid coupon code")
		}
		return nil, appErrors.Internal(err, "failed to load coupons")
	}
	return priceWithCoupon(course, coupon.Code, models.CouponSourceGlobal, coupon.DiscountPercent), nil
}

func priceWithCoupon(course *models.Course, code, source string, percent float64) *models.CouponResult {
	return &models.CouponResult{
		Code:            code,
		Source:          source,
		DiscountPercent: percent,
		OriginalPrice:   course.Price,
		DiscountedPrice: DiscountedPrice(course.Price, percent),
	}
}

// DiscountedPrice returns price × (1 − percent/100) rounded half away from zero to cents.
func DiscountedPrice(price, percent float64) float64 {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100)))
	value, _ := decimal.NewFromFloat(price).Mul(factor).Round(2).Float64()
	return value
}

// Create stores a global coupon.
func (s *CouponService) Create(ctx context.Context, actor models.Actor, req models.CreateCouponRequest) (*models.Coupon, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid coupon payload")
	}
	if req.DiscountPercent < 1 || req.DiscountPercent > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount percent must be between 1 and 100")
	}
	if req.CourseID != nil {
		if _, err := s.courses.FindByID(ctx, *req.CourseID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
			}
			return nil, appErrors.Internal(err, "failed to load course")
		}
	}

	coupon := &models.Coupon{
		ID:              uuid.NewString(),
		Code:            strings.TrimSpace(req.Code),
		DiscountPercent: req.DiscountPercent,
		CourseID:        req.CourseID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, appErrors.Internal(err, "failed to create coupon")
	}
	s.logger.Info("coupon created", zap.String("code", coupon.Code), zap.Float64("percent", coupon.DiscountPercent))
	return coupon, nil
}

// List returns every global coupon.
func (s *CouponService) List(ctx context.Context, actor models.Actor) ([]models.Coupon, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	coupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list coupons")
	}
	return coupons, nil
}
