// Package events publishes domain events such as enrollments and issued certificates.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	TypeEnrollmentCreated     = "enrollment.created"
	TypeCertificateIssued     = "certificate.issued"
	TypeRefundRequested       = "refund.requested"
	TypeRefundResolved        = "refund.resolved"
	TypeInstructorApproved    = "instructor.approved"
	TypeInstructorRejected    = "instructor.rejected"
	TypeSubscriptionActivated = "subscription.activated"
	TypeCourseSubmitted       = "course.submitted"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	RequestID  string      `json:"request_id,omitempty"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// WithRequestID tags the event with the HTTP request that caused it.
func (e Event) WithRequestID(id string) Event {
	e.RequestID = id
	return e
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when ENABLE_EVENTS is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
