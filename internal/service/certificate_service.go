package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
	"github.com/noah-isme/cosmos-learn-api/pkg/export"
	"github.com/noah-isme/cosmos-learn-api/pkg/jobs"
	"github.com/noah-isme/cosmos-learn-api/pkg/storage"
)

// JobTypeCertificateRender identifies PDF rendering jobs on the certificate queue.
const JobTypeCertificateRender = "certificate.render"

const maxCertificateNumberAttempts = 5

// Certificate outcomes reported to CertificateMetrics.
const (
	CertificateIssued          = "issued"
	CertificateRendered        = "rendered"
	CertificateRenderFailed    = "render_failed"
	CertificateRenderAbandoned = "render_abandoned"
)

type certificateRepository interface {
	CreateOnce(ctx context.Context, cert *models.Certificate) (*models.Certificate, bool, error)
	FindByUserCourse(ctx context.Context, userID string, courseID int64) (*models.Certificate, error)
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Certificate, error)
	SetFilePath(ctx context.Context, id, path string) error
}

type certificateUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type certificateCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type certificateRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Exists(filename string) bool
	Delete(filename string) error
}

type urlSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (resourceID, relPath string, expiresAt time.Time, err error)
}

// CertificateMetrics receives certificate lifecycle counters.
type CertificateMetrics interface {
	ObserveCertificate(outcome string)
}

// CertificateOptions wires the optional PDF pipeline. With a nil Queue no PDF is produced.
type CertificateOptions struct {
	Queue        jobEnqueuer
	Renderer     certificateRenderer
	Storage      fileStore
	Signer       urlSigner
	DownloadPath string
	Metrics      CertificateMetrics
}

// CertificateService issues completion certificates and serves their PDFs.
type CertificateService struct {
	certs     certificateRepository
	users     certificateUserRepository
	courses   certificateCourseRepository
	publisher events.Publisher
	logger    *zap.Logger
	opts      CertificateOptions
	now       func() time.Time
	suffix    func() (string, error)
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(certs certificateRepository, users certificateUserRepository, courses certificateCourseRepository, publisher events.Publisher, logger *zap.Logger, opts CertificateOptions) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.Renderer == nil {
		opts.Renderer = export.NewCertificateRenderer("")
	}
	if opts.DownloadPath == "" {
		opts.DownloadPath = "/api/v1/certificates/download"
	}
	return &CertificateService{
		certs:     certs,
		users:     users,
		courses:   courses,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		suffix:    randomSuffix,
	}
}

// Generate issues the certificate for (userID, courseID). An existing certificate is
// returned unchanged.
func (s *CertificateService) Generate(ctx context.Context, userID string, courseID int64) (*models.Certificate, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}

	if existing, err := s.certs.FindByUserCourse(ctx, userID, courseID); err == nil {
		if existing.FilePath == "" || (s.opts.Storage != nil && !s.opts.Storage.Exists(existing.FilePath)) {
			s.enqueueRender(existing)
		}
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "failed to load certificate")
	}

	for attempt := 0; attempt < maxCertificateNumberAttempts; attempt++ {
		number, err := s.nextNumber(ctx, courseID)
		if err != nil {
			return nil, err
		}
		issued := s.now()
		cert := &models.Certificate{
			ID:                uuid.NewString(),
			UserID:            userID,
			CourseID:          courseID,
			CourseTitle:       course.Title,
			UserName:          user.Name,
			CertificateNumber: number,
			IssuedAt:          issued,
		}
		stored, created, err := s.certs.CreateOnce(ctx, cert)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, appErrors.Internal(err, "failed to store certificate")
		}
		if created {
			s.afterIssue(ctx, stored)
		}
		return stored, nil
	}
	return nil, appErrors.Internal(errors.New("certificate number collision"), "failed to allocate certificate number")
}

func (s *CertificateService) nextNumber(ctx context.Context, courseID int64) (string, error) {
	for attempt := 0; attempt < maxCertificateNumberAttempts; attempt++ {
		suffix, err := s.suffix()
		if err != nil {
			return "", appErrors.Internal(err, "failed to generate certificate number")
		}
		number := fmt.Sprintf("COSMOS-%d-%d-%s", s.now().UnixMilli(), courseID, suffix)
		exists, err := s.certs.NumberExists(ctx, number)
		if err != nil {
			return "", appErrors.Internal(err, "failed to check certificate number")
		}
		if !exists {
			return number, nil
		}
	}
	return "", appErrors.Internal(errors.New("certificate number collision"), "failed to allocate certificate number")
}

func (s *CertificateService) afterIssue(ctx context.Context, cert *models.Certificate) {
	s.logger.Info("certificate issued",
		zap.String("certificate_id", cert.ID),
		zap.String("user_id", cert.UserID),
		zap.Int64("course_id", cert.CourseID),
		zap.String("number", cert.CertificateNumber))
	s.observe(CertificateIssued)
	publishEvent(ctx, s.publisher, s.logger, events.TypeCertificateIssued, map[string]interface{}{
		"certificate_id": cert.ID,
		"user_id":        cert.UserID,
		"course_id":      cert.CourseID,
		"number":         cert.CertificateNumber,
	})

	s.enqueueRender(cert)
}

// enqueueRender schedules PDF rendering. A job already in flight for cert is left alone.
func (s *CertificateService) enqueueRender(cert *models.Certificate) {
	if s.opts.Queue == nil {
		return
	}
	job := jobs.Job{ID: "certificate:" + cert.ID, Type: JobTypeCertificateRender, Payload: cert.ID}
	if err := s.opts.Queue.Enqueue(job); err != nil && !errors.Is(err, jobs.ErrDuplicateJob) {
		s.logger.Warn("failed to enqueue certificate rendering", zap.String("certificate_id", cert.ID), zap.Error(err))
	}
}

// RenderJob is the queue handler that draws a certificate PDF and records its location.
func (s *CertificateService) RenderJob(ctx context.Context, job jobs.Job) error {
	certID, ok := job.Payload.(string)
	if !ok || certID == "" {
		return fmt.Errorf("certificate job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if s.opts.Storage == nil {
		return errors.New("certificate storage not configured")
	}
	cert, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		return fmt.Errorf("load certificate %s: %w", certID, err)
	}
	if cert.FilePath != "" && s.opts.Storage.Exists(cert.FilePath) {
		return nil
	}

	var instructor string
	if course, err := s.courses.FindByID(ctx, cert.CourseID); err == nil {
		instructor = course.InstructorName
	}
	pdf, err := s.opts.Renderer.Render(export.CertificateDocument{
		Number:         cert.CertificateNumber,
		StudentName:    cert.UserName,
		CourseTitle:    cert.CourseTitle,
		InstructorName: instructor,
		IssuedAt:       cert.IssuedAt,
	})
	if err != nil {
		s.observe(CertificateRenderFailed)
		return fmt.Errorf("render certificate %s: %w", certID, err)
	}
	path, err := s.opts.Storage.Save(fmt.Sprintf("%s/%s.pdf", cert.UserID, cert.CertificateNumber), pdf)
	if err != nil {
		s.observe(CertificateRenderFailed)
		return fmt.Errorf("store certificate %s: %w", certID, err)
	}
	if err := s.certs.SetFilePath(ctx, certID, path); err != nil {
		if derr := s.opts.Storage.Delete(path); derr != nil {
			s.logger.Warn("failed to remove orphaned certificate file", zap.String("path", path), zap.Error(derr))
		}
		return fmt.Errorf("record certificate path %s: %w", certID, err)
	}
	s.observe(CertificateRendered)
	return nil
}

// RenderAbandoned is the queue give-up hook. The certificate stays valid without a PDF
// and a later Generate call enqueues the rendering again.
func (s *CertificateService) RenderAbandoned(job jobs.Job, err error) {
	s.logger.Error("certificate rendering abandoned",
		zap.String("job_id", job.ID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))
	s.observe(CertificateRenderAbandoned)
}

// List returns the caller's certificates.
func (s *CertificateService) List(ctx context.Context, userID string) ([]models.Certificate, error) {
	certs, err := s.certs.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list certificates")
	}
	return certs, nil
}

// Get returns a certificate visible to the actor.
func (s *CertificateService) Get(ctx context.Context, actor models.Actor, certID string) (*models.Certificate, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	cert, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Internal(err, "failed to load certificate")
	}
	if cert.UserID != actor.UserID && !actor.Is(models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	return cert, nil
}

// DownloadURL signs a short-lived link to the certificate PDF. Ready is false while the
// PDF has not been rendered yet.
func (s *CertificateService) DownloadURL(ctx context.Context, actor models.Actor, certID string) (*models.CertificateDownload, error) {
	cert, err := s.Get(ctx, actor, certID)
	if err != nil {
		return nil, err
	}
	if cert.FilePath == "" || s.opts.Signer == nil {
		return &models.CertificateDownload{CertificateID: cert.ID, Ready: false}, nil
	}
	token, expiresAt, err := s.opts.Signer.Generate(cert.ID, cert.FilePath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	return &models.CertificateDownload{
		CertificateID: cert.ID,
		Token:         token,
		URL:           s.opts.DownloadPath + "?token=" + url.QueryEscape(token),
		ExpiresAt:     expiresAt,
		Ready:         true,
	}, nil
}

// ResolveDownload validates a signed token and opens the PDF it points at.
func (s *CertificateService) ResolveDownload(ctx context.Context, token string) (*models.Certificate, *os.File, error) {
	if s.opts.Signer == nil || s.opts.Storage == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "certificate downloads are disabled")
	}
	certID, path, _, err := s.opts.Signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	cert, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to load certificate")
	}
	if cert.FilePath != path {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.opts.Storage.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "certificate file not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to open certificate file")
	}
	return cert, file, nil
}

func (s *CertificateService) observe(outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveCertificate(outcome)
	}
}

func randomSuffix() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
