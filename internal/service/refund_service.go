package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
	"github.com/noah-isme/cosmos-learn-api/pkg/export"
)

type refundRepository interface {
	Create(ctx context.Context, refund *models.Refund) error
	FindByID(ctx context.Context, id string) (*models.Refund, error)
	Update(ctx context.Context, id string, fn func(*models.Refund) error) (*models.Refund, error)
	List(ctx context.Context, status models.RefundStatus) ([]models.Refund, error)
}

type refundCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// RefundService handles refund requests and their one-shot resolution.
type RefundService struct {
	refunds   refundRepository
	courses   refundCourseRepository
	csv       csvRenderer
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRefundService constructs a RefundService.
func NewRefundService(refunds refundRepository, courses refundCourseRepository, csv csvRenderer, publisher events.Publisher, logger *zap.Logger) *RefundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RefundService{
		refunds:   refunds,
		courses:   courses,
		csv:       csv,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Request records a pending refund. Enrollment in the course is not verified.
func (s *RefundService) Request(ctx context.Context, userID, email string, courseID int64, reason string) (*models.Refund, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	refund := &models.Refund{
		ID:          uuid.NewString(),
		UserID:      userID,
		UserEmail:   email,
		CourseID:    courseID,
		Reason:      strings.TrimSpace(reason),
		Status:      models.RefundPending,
		RequestedAt: s.now(),
	}
	if course, err := s.courses.FindByID(ctx, courseID); err == nil {
		refund.CourseTitle = course.Title
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("failed to resolve refund course title", zap.Int64("course_id", courseID), zap.Error(err))
	}

	if err := s.refunds.Create(ctx, refund); err != nil {
		return nil, appErrors.Internal(err, "failed to create refund")
	}
	s.logger.Info("refund requested", zap.String("refund_id", refund.ID), zap.String("user_id", userID), zap.Int64("course_id", courseID))
	publishEvent(ctx, s.publisher, s.logger, events.TypeRefundRequested, map[string]interface{}{
		"refund_id": refund.ID,
		"user_id":   userID,
		"course_id": courseID,
	})
	return refund, nil
}

// Resolve approves or rejects a pending refund. Resolved refunds are terminal and a second
// resolution fails with ALREADY_TERMINAL.
func (s *RefundService) Resolve(ctx context.Context, actor models.Actor, refundID string, approved bool) (*models.Refund, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	refund, err := s.refunds.Update(ctx, refundID, func(r *models.Refund) error {
		if r.Status != models.RefundPending {
			return appErrors.Clone(appErrors.ErrTerminalState, fmt.Sprintf("refund already %s", r.Status))
		}
		now := s.now()
		r.Status = models.RefundRejected
		if approved {
			r.Status = models.RefundApproved
		}
		r.ResolvedAt = &now
		r.ResolvedBy = actor.UserID
		return nil
	})
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case errors.Is(err, repository.ErrNotFound):
			return nil, appErrors.Clone(appErrors.ErrRefundNotFound, "refund not found")
		default:
			return nil, appErrors.Internal(err, "failed to resolve refund")
		}
	}

	s.logger.Info("refund resolved", zap.String("refund_id", refund.ID), zap.String("status", string(refund.Status)))
	publishEvent(ctx, s.publisher, s.logger, events.TypeRefundResolved, map[string]interface{}{
		"refund_id": refund.ID,
		"status":    refund.Status,
	})
	return refund, nil
}

// Get returns a refund. Students may only read their own.
func (s *RefundService) Get(ctx context.Context, actor models.Actor, refundID string) (*models.Refund, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	refund, err := s.refunds.FindByID(ctx, refundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrRefundNotFound, "refund not found")
		}
		return nil, appErrors.Internal(err, "failed to load refund")
	}
	if !actor.Is(models.RoleAdmin) && refund.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrRefundNotFound, "refund not found")
	}
	return refund, nil
}

// List returns refunds for the admin queue.
func (s *RefundService) List(ctx context.Context, actor models.Actor, status models.RefundStatus) ([]models.Refund, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	refunds, err := s.refunds.List(ctx, status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list refunds")
	}
	return refunds, nil
}

// ExportCSV renders the refund queue as a CSV report.
func (s *RefundService) ExportCSV(ctx context.Context, actor models.Actor, status models.RefundStatus) ([]byte, string, error) {
	refunds, err := s.List(ctx, actor, status)
	if err != nil {
		return nil, "", err
	}
	data := export.Dataset{Headers: []string{"id", "user_id", "user_email", "course_id", "course_title", "reason", "status", "requested_at", "resolved_at"}}
	for _, r := range refunds {
		resolved := ""
		if r.ResolvedAt != nil {
			resolved = r.ResolvedAt.Format(time.RFC3339)
		}
		data.AddRow(r.ID, r.UserID, r.UserEmail, fmt.Sprint(r.CourseID), r.CourseTitle, r.Reason,
			string(r.Status), r.RequestedAt.Format(time.RFC3339), resolved)
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to render refund report")
	}
	return out, export.Filename("refunds", s.now()), nil
}
