package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
)

func TestRefundRequestAndResolve(t *testing.T) {
	f := newFixture(t, publishedCourse(1, "Go", 10))
	svc := NewRefundService(f.refunds, f.courses, nil, f.events, nil)
	ctx := context.Background()

	refund, err := svc.Request(ctx, "s1", "s1@example.com", 1, " changed my mind ")
	require.NoError(t, err)
	assert.Equal(t, models.RefundPending, refund.Status)
	assert.Equal(t, "Go", refund.CourseTitle)
	assert.Equal(t, "changed my mind", refund.Reason)

	_, err = svc.Resolve(ctx, teacherActor, refund.ID, true)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	resolved, err := svc.Resolve(ctx, adminActor, refund.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RefundApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, adminActor.UserID, resolved.ResolvedBy)

	_, err = svc.Resolve(ctx, adminActor, refund.ID, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)

	stored, err := svc.Get(ctx, adminActor, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundApproved, stored.Status)
	assert.Equal(t, resolved.ResolvedAt.Unix(), stored.ResolvedAt.Unix())

	assert.Equal(t, []string{events.TypeRefundRequested, events.TypeRefundResolved}, f.events.types())
}

func TestRefundResolveUnknown(t *testing.T) {
	f := newFixture(t, publishedCourse(1, "Go", 10))
	svc := NewRefundService(f.refunds, f.courses, nil, nil, nil)

	_, err := svc.Resolve(context.Background(), adminActor, "missing", true)
	assert.Equal(t, appErrors.ErrRefundNotFound.Code, appErrors.FromError(err).Code)
}

func TestRefundRequestForUnknownCourseStillRecorded(t *testing.T) {
	f := newFixture(t, publishedCourse(1, "Go", 10))
	svc := NewRefundService(f.refunds, f.courses, nil, nil, nil)

	refund, err := svc.Request(context.Background(), "s1", "s1@example.com", 77, "")
	require.NoError(t, err)
	assert.Empty(t, refund.CourseTitle)
}

func TestRefundGetScopedToOwner(t *testing.T) {
	f := newFixture(t, publishedCourse(1, "Go", 10))
	svc := NewRefundService(f.refunds, f.courses, nil, nil, nil)
	ctx := context.Background()

	refund, err := svc.Request(ctx, "s1", "s1@example.com", 1, "")
	require.NoError(t, err)

	_, err = svc.Get(ctx, models.Actor{UserID: "s2", Role: models.RoleStudent}, refund.ID)
	assert.Equal(t, appErrors.ErrRefundNotFound.Code, appErrors.FromError(err).Code)

	own, err := svc.Get(ctx, models.Actor{UserID: "s1", Role: models.RoleStudent}, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, refund.ID, own.ID)
}

func TestRefundListAndExport(t *testing.T) {
	f := newFixture(t, publishedCourse(1, "Go", 10))
	svc := NewRefundService(f.refunds, f.courses, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Request(ctx, "s1", "s1@example.com", 1, "too hard")
	require.NoError(t, err)
	_, err = svc.Request(ctx, "s2", "s2@example.com", 1, "too easy")
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, adminActor, first.ID, false)
	require.NoError(t, err)

	pending, err := svc.List(ctx, adminActor, models.RefundPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "s2", pending[0].UserID)

	data, filename, err := svc.ExportCSV(ctx, adminActor, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "refunds-"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,user_id,user_email"))
	assert.Contains(t, lines[1], "rejected")

	_, _, err = svc.ExportCSV(ctx, teacherActor, "")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
