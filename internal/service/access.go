package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
	"github.com/noah-isme/cosmos-learn-api/pkg/middleware/requestid"
)

// authorize checks that the actor is authenticated and holds one of roles.
func authorize(actor models.Actor, roles ...models.UserRole) error {
	if actor.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if len(roles) > 0 && !actor.Is(roles...) {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient role for this operation")
	}
	return nil
}

func validationError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// publishEvent emits a domain event. Delivery failures are logged and never fail the caller.
func publishEvent(ctx context.Context, publisher events.Publisher, logger *zap.Logger, eventType string, payload interface{}) {
	if publisher == nil {
		return
	}
	event := events.New(eventType, payload).WithRequestID(requestid.FromContext(ctx))
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish domain event",
			zap.String("type", eventType),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}
