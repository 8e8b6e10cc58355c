package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
)

// ErrPaymentRejected is returned by a PaymentAuthorizer that refuses a charge.
var ErrPaymentRejected = errors.New("payment rejected by provider")

// Payment outcomes reported to CheckoutMetrics.
const (
	PaymentAuthorized = "authorized"
	PaymentDeclined   = "declined"
	PaymentTimedOut   = "timeout"
	PaymentSkipped    = "skipped"
	PaymentFailed     = "error"
)

// PaymentAuthorizer charges a customer. Implementations must honour ctx cancellation.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, req models.PaymentRequest) (*models.PaymentAuthorization, error)
}

// SimulatedPaymentProvider approves every positive amount after a fixed delay.
type SimulatedPaymentProvider struct {
	delay time.Duration
	now   func() time.Time
}

// NewSimulatedPaymentProvider constructs the simulated provider. A negative delay is treated as zero.
func NewSimulatedPaymentProvider(delay time.Duration) *SimulatedPaymentProvider {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedPaymentProvider{delay: delay, now: func() time.Time { return time.Now().UTC() }}
}

// Authorize waits for the configured delay, then approves the charge.
func (p *SimulatedPaymentProvider) Authorize(ctx context.Context, req models.PaymentRequest) (*models.PaymentAuthorization, error) {
	if req.Amount <= 0 {
		return nil, ErrPaymentRejected
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return &models.PaymentAuthorization{
		TransactionID: "txn_" + uuid.NewString(),
		Amount:        req.Amount,
		AuthorizedAt:  p.now(),
	}, nil
}

type checkoutCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type checkoutUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
}

type couponApplier interface {
	Apply(ctx context.Context, courseID int64, code string) (*models.CouponResult, error)
}

type enroller interface {
	Enroll(ctx context.Context, userID string, courseID int64) (*models.EnrollmentResult, error)
}

// CheckoutMetrics receives payment outcomes.
type CheckoutMetrics interface {
	ObservePayment(outcome string)
}

// CheckoutConfig holds pricing and payment policy.
type CheckoutConfig struct {
	TaxRate            float64
	PaymentTimeout     time.Duration
	SubscriptionPeriod time.Duration
	Currency           string
}

// CheckoutService prices purchases, authorises payment and grants the entitlement.
type CheckoutService struct {
	courses   checkoutCourseRepository
	users     checkoutUserRepository
	coupons   couponApplier
	enroller  enroller
	payments  PaymentAuthorizer
	publisher events.Publisher
	metrics   CheckoutMetrics
	validator *validator.Validate
	logger    *zap.Logger
	config    CheckoutConfig
	now       func() time.Time
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(
	courses checkoutCourseRepository,
	users checkoutUserRepository,
	coupons couponApplier,
	enroller enroller,
	payments PaymentAuthorizer,
	publisher events.Publisher,
	metrics CheckoutMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg CheckoutConfig,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	if cfg.SubscriptionPeriod <= 0 {
		cfg.SubscriptionPeriod = 30 * 24 * time.Hour
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &CheckoutService{
		courses:   courses,
		users:     users,
		coupons:   coupons,
		enroller:  enroller,
		payments:  payments,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices a course for the user without charging.
func (s *CheckoutService) Quote(ctx context.Context, courseID int64, couponCode string) (*models.PriceBreakdown, *models.CouponResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to load course")
	}

	subtotal := decimal.NewFromFloat(course.Price)
	discounted := subtotal
	var coupon *models.CouponResult
	if couponCode != "" {
		coupon, err = s.coupons.Apply(ctx, courseID, couponCode)
		if err != nil {
			return nil, nil, err
		}
		discounted = decimal.NewFromFloat(coupon.DiscountedPrice)
	}
	tax := discounted.Mul(decimal.NewFromFloat(s.config.TaxRate)).Round(2)
	total := discounted.Add(tax).Round(2)

	return &models.PriceBreakdown{
		Subtotal: subtotal.Round(2).InexactFloat64(),
		Discount: subtotal.Sub(discounted).Round(2).InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}, coupon, nil
}

// PurchaseCourse charges the user for a course and enrolls them. Free courses and users
// already enrolled skip the payment step.
func (s *CheckoutService) PurchaseCourse(ctx context.Context, userID string, courseID int64, couponCode string) (*models.PurchaseReceipt, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
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
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}

	price, coupon, err := s.Quote(ctx, courseID, couponCode)
	if err != nil {
		return nil, err
	}
	receipt := &models.PurchaseReceipt{Price: *price, Coupon: coupon}

	if user.IsEnrolled(courseID) || price.Total <= 0 {
		s.observePayment(PaymentSkipped)
	} else {
		auth, err := s.charge(ctx, models.PaymentRequest{
			UserID:      userID,
			Amount:      price.Total,
			Currency:    s.config.Currency,
			Description: fmt.Sprintf("course %d: %s", course.ID, course.Title),
		})
		if err != nil {
			return nil, err
		}
		receipt.Authorization = auth
	}

	enrollment, err := s.enroller.Enroll(ctx, userID, courseID)
	if err != nil {
		if receipt.Authorization != nil {
			s.logger.Error("enrollment failed after payment",
				zap.String("user_id", userID),
				zap.Int64("course_id", courseID),
				zap.String("transaction_id", receipt.Authorization.TransactionID),
				zap.Error(err))
		}
		return nil, err
	}
	receipt.Enrollment = enrollment
	return receipt, nil
}

// ActivateSubscription charges the plan price and attaches an active subscription to the user.
func (s *CheckoutService) ActivateSubscription(ctx context.Context, userID string, req models.SubscriptionRequest) (*models.Subscription, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subscription payload")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}

	auth, err := s.charge(ctx, models.PaymentRequest{
		UserID:      userID,
		Amount:      decimal.NewFromFloat(req.Price).Round(2).InexactFloat64(),
		Currency:    s.config.Currency,
		Description: "subscription: " + req.Plan,
	})
	if err != nil {
		return nil, err
	}

	start := s.now()
	sub := &models.Subscription{
		Plan:            req.Plan,
		Price:           req.Price,
		Status:          models.SubscriptionActive,
		StartDate:       start,
		NextBillingDate: start.Add(s.config.SubscriptionPeriod),
	}
	if _, err := s.users.Update(ctx, userID, func(u *models.User) error {
		u.Subscription = sub
		u.UpdatedAt = start
		return nil
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to save subscription")
	}

	s.logger.Info("subscription activated", zap.String("user_id", userID), zap.String("plan", req.Plan), zap.String("transaction_id", auth.TransactionID))
	publishEvent(ctx, s.publisher, s.logger, events.TypeSubscriptionActivated, map[string]interface{}{
		"user_id": userID,
		"plan":    req.Plan,
	})
	return sub, nil
}

func (s *CheckoutService) charge(ctx context.Context, req models.PaymentRequest) (*models.PaymentAuthorization, error) {
	payCtx, cancel := context.WithTimeout(ctx, s.config.PaymentTimeout)
	defer cancel()

	auth, err := s.payments.Authorize(payCtx, req)
	switch {
	case err == nil:
		s.observePayment(PaymentAuthorized)
		return auth, nil
	case errors.Is(err, context.DeadlineExceeded):
		s.observePayment(PaymentTimedOut)
		s.logger.Warn("payment authorization timed out", zap.String("user_id", req.UserID), zap.Duration("timeout", s.config.PaymentTimeout))
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentTimeout.Code, appErrors.ErrPaymentTimeout.Status, "payment provider did not respond in time")
	case errors.Is(err, ErrPaymentRejected):
		s.observePayment(PaymentDeclined)
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentDeclined.Code, appErrors.ErrPaymentDeclined.Status, "payment was declined")
	default:
		s.observePayment(PaymentFailed)
		return nil, appErrors.Internal(err, "payment authorization failed")
	}
}

func (s *CheckoutService) observePayment(outcome string) {
	if s.metrics != nil {
		s.metrics.ObservePayment(outcome)
	}
}
