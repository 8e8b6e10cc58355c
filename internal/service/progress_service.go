package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
)

type progressRepository interface {
	Find(ctx context.Context, userID string, courseID int64) (*models.Progress, error)
	Upsert(ctx context.Context, userID string, courseID int64, init func() models.Progress, fn func(*models.Progress) error) (*models.Progress, error)
	ListForUser(ctx context.Context, userID string) ([]models.Progress, error)
}

type progressCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type certificateIssuer interface {
	Generate(ctx context.Context, userID string, courseID int64) (*models.Certificate, error)
}

// ProgressService tracks lesson completion and triggers certificate issuance.
type ProgressService struct {
	progress     progressRepository
	courses      progressCourseRepository
	certificates certificateIssuer
	logger       *zap.Logger
	now          func() time.Time
}

// NewProgressService constructs a ProgressService.
func NewProgressService(progress progressRepository, courses progressCourseRepository, certificates certificateIssuer, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		progress:     progress,
		courses:      courses,
		certificates: certificates,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// MarkLessonComplete records a completed lesson. The course flips to completed exactly once,
// when every lesson is done, and the certificate is issued at that point.
func (s *ProgressService) MarkLessonComplete(ctx context.Context, userID string, courseID int64, sectionIndex, lessonIndex int) (*models.LessonCompletion, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	total := course.TotalLessons()
	if total == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course has no lessons")
	}
	if err := checkLessonRef(course, sectionIndex, lessonIndex); err != nil {
		return nil, err
	}

	justCompleted := false
	progress, err := s.progress.Upsert(ctx, userID, courseID, s.initProgress(userID, courseID), func(p *models.Progress) error {
		key := models.LessonKey(sectionIndex, lessonIndex)
		if !p.HasLesson(key) {
			p.CompletedLessons = append(p.CompletedLessons, key)
		}

		section := course.Curriculum[sectionIndex]
		sectionDone := true
		for i := range section.Lessons {
			if !p.HasLesson(models.LessonKey(sectionIndex, i)) {
				sectionDone = false
				break
			}
		}
		if sectionDone && !p.HasSection(sectionIndex) {
			p.CompletedSections = append(p.CompletedSections, sectionIndex)
		}

		done := countCurrentLessons(course, p)
		p.ProgressPercent = percentComplete(done, total)
		now := s.now()
		p.LastLesson = &models.LessonRef{SectionIndex: sectionIndex, LessonIndex: lessonIndex}
		p.LastAccessedAt = &now
		if done == total && !p.Completed {
			p.Completed = true
			p.CompletedAt = &now
			justCompleted = true
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to save progress")
	}

	result := &models.LessonCompletion{Progress: progress, JustCompleted: justCompleted}
	if progress.Completed && progress.CertificateID == "" {
		s.issueCertificate(ctx, result)
	}
	return result, nil
}

// issueCertificate runs for a freshly completed course, and again on later calls while a
// completed course still lacks its certificate.
func (s *ProgressService) issueCertificate(ctx context.Context, result *models.LessonCompletion) {
	p := result.Progress
	cert, err := s.certificates.Generate(ctx, p.UserID, p.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, appErrors.ErrCourseNotFound):
			result.IssuanceSkipped = models.SkipCourseNotFound
		case errors.Is(err, appErrors.ErrUserNotFound):
			result.IssuanceSkipped = models.SkipUserNotFound
		default:
			s.logger.Error("certificate issuance failed", zap.String("user_id", p.UserID), zap.Int64("course_id", p.CourseID), zap.Error(err))
			return
		}
		s.logger.Warn("certificate issuance skipped", zap.String("user_id", p.UserID), zap.Int64("course_id", p.CourseID), zap.String("reason", result.IssuanceSkipped))
		return
	}

	result.Certificate = cert
	updated, err := s.progress.Upsert(ctx, p.UserID, p.CourseID, s.initProgress(p.UserID, p.CourseID), func(stored *models.Progress) error {
		stored.CertificateID = cert.ID
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to link certificate to progress", zap.String("certificate_id", cert.ID), zap.Error(err))
		return
	}
	result.Progress = updated
}

// Get returns the stored progress, or a fresh record that is not persisted until a write.
func (s *ProgressService) Get(ctx context.Context, userID string, courseID int64) (*models.Progress, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	progress, err := s.progress.Find(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fresh := s.initProgress(userID, courseID)()
			return &fresh, nil
		}
		return nil, appErrors.Internal(err, "failed to load progress")
	}
	return progress, nil
}

// UpdateLastLesson remembers where the user left off.
func (s *ProgressService) UpdateLastLesson(ctx context.Context, userID string, courseID int64, sectionIndex, lessonIndex int) (*models.Progress, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := checkLessonRef(course, sectionIndex, lessonIndex); err != nil {
		return nil, err
	}
	progress, err := s.progress.Upsert(ctx, userID, courseID, s.initProgress(userID, courseID), func(p *models.Progress) error {
		now := s.now()
		p.LastLesson = &models.LessonRef{SectionIndex: sectionIndex, LessonIndex: lessonIndex}
		p.LastAccessedAt = &now
		return nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to save progress")
	}
	return progress, nil
}

// ListForUser returns every progress record of the user.
func (s *ProgressService) ListForUser(ctx context.Context, userID string) ([]models.Progress, error) {
	records, err := s.progress.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list progress")
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].CourseID < records[j].CourseID })
	return records, nil
}

func (s *ProgressService) loadCourse(ctx context.Context, courseID int64) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

func (s *ProgressService) initProgress(userID string, courseID int64) func() models.Progress {
	return func() models.Progress {
		return models.Progress{
			UserID:            userID,
			CourseID:          courseID,
			CompletedLessons:  []string{},
			CompletedSections: []int{},
			EnrolledAt:        s.now(),
		}
	}
}

func checkLessonRef(course *models.Course, sectionIndex, lessonIndex int) error {
	if sectionIndex < 0 || sectionIndex >= len(course.Curriculum) {
		return appErrors.Clone(appErrors.ErrValidation, "section index out of range")
	}
	if lessonIndex < 0 || lessonIndex >= len(course.Curriculum[sectionIndex].Lessons) {
		return appErrors.Clone(appErrors.ErrValidation, "lesson index out of range")
	}
	return nil
}

// countCurrentLessons counts completed keys that still exist in the curriculum, so an
// edited course never pushes the percentage past 100.
func countCurrentLessons(course *models.Course, p *models.Progress) int {
	done := 0
	for si, section := range course.Curriculum {
		for li := range section.Lessons {
			if p.HasLesson(models.LessonKey(si, li)) {
				done++
			}
		}
	}
	return done
}

// percentComplete rounds to the nearest whole percent but only reports 100 once every
// lesson is done.
func percentComplete(done, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(done) * 100 / float64(total)))
	if pct >= 100 && done < total {
		return 99
	}
	return pct
}
