package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
	"github.com/noah-isme/cosmos-learn-api/pkg/jobs"
	"github.com/noah-isme/cosmos-learn-api/pkg/storage"
)

type capturingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *capturingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type countingCertificateMetrics struct {
	outcomes []string
}

func (m *countingCertificateMetrics) ObserveCertificate(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func TestCertificateGenerateIsIdempotent(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	f.addStudent(t, "s1", "Sam")
	queue := &capturingQueue{}
	svc := NewCertificateService(f.certificates, f.users, f.courses, f.events, nil, CertificateOptions{Queue: queue})
	ctx := context.Background()

	first, err := svc.Generate(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, "Sam", first.UserName)
	assert.Equal(t, "Go Fundamentals", first.CourseTitle)

	second, err := svc.Generate(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)

	// The PDF is still missing, so the second call schedules rendering again.
	require.Len(t, queue.jobs, 2)
	assert.Equal(t, JobTypeCertificateRender, queue.jobs[0].Type)
	assert.Equal(t, first.ID, queue.jobs[0].Payload)
	assert.Equal(t, queue.jobs[0].ID, queue.jobs[1].ID)
	assert.Equal(t, []string{events.TypeCertificateIssued}, f.events.types())
}

func TestCertificateGenerateErrors(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	svc := NewCertificateService(f.certificates, f.users, f.courses, nil, nil, CertificateOptions{})
	ctx := context.Background()

	_, err := svc.Generate(ctx, "s1", 99)
	assert.Equal(t, appErrors.ErrCourseNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Generate(ctx, "ghost", 1)
	assert.Equal(t, appErrors.ErrUserNotFound.Code, appErrors.FromError(err).Code)
}

func TestCertificateNumbersStayUnique(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	f.addStudent(t, "s1", "Sam")
	f.addStudent(t, "s2", "Sue")
	svc := NewCertificateService(f.certificates, f.users, f.courses, nil, nil, CertificateOptions{})
	fixed := time.UnixMilli(1700000000000).UTC()
	svc.now = func() time.Time { return fixed }
	suffixes := []string{"aaaaaaaa", "aaaaaaaa", "bbbbbbbb"}
	svc.suffix = func() (string, error) {
		next := suffixes[0]
		suffixes = suffixes[1:]
		return next, nil
	}
	ctx := context.Background()

	first, err := svc.Generate(ctx, "s1", 1)
	require.NoError(t, err)
	second, err := svc.Generate(ctx, "s2", 1)
	require.NoError(t, err)
	assert.Equal(t, "COSMOS-1700000000000-1-aaaaaaaa", first.CertificateNumber)
	assert.Equal(t, "COSMOS-1700000000000-1-bbbbbbbb", second.CertificateNumber)
}

func TestCertificateEnqueueFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	f.addStudent(t, "s1", "Sam")
	svc := NewCertificateService(f.certificates, f.users, f.courses, nil, nil, CertificateOptions{Queue: &capturingQueue{err: errors.New("queue stopped")}})

	cert, err := svc.Generate(context.Background(), "s1", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.ID)
}

func TestCertificateRenderAbandonedIsCounted(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	metrics := &countingCertificateMetrics{}
	svc := NewCertificateService(f.certificates, f.users, f.courses, nil, nil, CertificateOptions{Metrics: metrics})

	svc.RenderAbandoned(jobs.Job{ID: "certificate:c1", Attempt: 4}, errors.New("disk full"))
	assert.Equal(t, []string{CertificateRenderAbandoned}, metrics.outcomes)
}

func TestCertificateRenderAndDownload(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	f.addStudent(t, "s1", "Sam")
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	queue := &capturingQueue{}
	metrics := &countingCertificateMetrics{}
	svc := NewCertificateService(f.certificates, f.users, f.courses, nil, nil, CertificateOptions{
		Queue:   queue,
		Storage: store,
		Signer:  storage.NewSignedURLSigner("secret", time.Hour),
		Metrics: metrics,
	})
	ctx := context.Background()
	owner := models.Actor{UserID: "s1", Role: models.RoleStudent}

	cert, err := svc.Generate(ctx, "s1", 1)
	require.NoError(t, err)

	pending, err := svc.DownloadURL(ctx, owner, cert.ID)
	require.NoError(t, err)
	assert.False(t, pending.Ready)

	require.Len(t, queue.jobs, 1)
	require.NoError(t, svc.RenderJob(ctx, queue.jobs[0]))
	assert.Equal(t, []string{CertificateIssued, CertificateRendered}, metrics.outcomes)

	download, err := svc.DownloadURL(ctx, owner, cert.ID)
	require.NoError(t, err)
	require.True(t, download.Ready)
	assert.True(t, strings.HasPrefix(download.URL, "/api/v1/certificates/download?token="))

	_, err = svc.DownloadURL(ctx, models.Actor{UserID: "s2", Role: models.RoleStudent}, cert.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	resolved, file, err := svc.ResolveDownload(ctx, download.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, cert.ID, resolved.ID)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))

	_, _, err = svc.ResolveDownload(ctx, download.Token+"x")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCertificateRenderJobRejectsBadPayload(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewCertificateService(f.certificates, f.users, f.courses, nil, nil, CertificateOptions{Storage: store})

	assert.Error(t, svc.RenderJob(context.Background(), jobs.Job{ID: "x", Payload: 42}))
	assert.Error(t, svc.RenderJob(context.Background(), jobs.Job{ID: "x", Payload: "missing"}))
}

func TestCertificateLostPDFIsRenderedAgain(t *testing.T) {
	f := newFixture(t, threeLessonCourse(1))
	f.addStudent(t, "s1", "Sam")
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	queue := &capturingQueue{}
	svc := NewCertificateService(f.certificates, f.users, f.courses, nil, nil, CertificateOptions{Queue: queue, Storage: store})
	ctx := context.Background()

	cert, err := svc.Generate(ctx, "s1", 1)
	require.NoError(t, err)
	require.NoError(t, svc.RenderJob(ctx, queue.jobs[0]))

	rendered, err := f.certificates.FindByID(ctx, cert.ID)
	require.NoError(t, err)
	require.True(t, store.Exists(rendered.FilePath))

	_, err = svc.Generate(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Len(t, queue.jobs, 1)

	require.NoError(t, store.Delete(rendered.FilePath))
	_, err = svc.Generate(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, queue.jobs, 2)
	require.NoError(t, svc.RenderJob(ctx, queue.jobs[1]))
	assert.True(t, store.Exists(rendered.FilePath))
}
