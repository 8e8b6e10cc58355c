package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
)

type questionRepository interface {
	Create(ctx context.Context, q *models.Question) error
	FindByID(ctx context.Context, id string) (*models.Question, error)
	AppendAnswer(ctx context.Context, questionID string, answer models.Answer) (*models.Question, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.Question, error)
}

type qaCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// QAService runs the append-only question and answer threads of a course.
type QAService struct {
	questions questionRepository
	courses   qaCourseRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewQAService constructs a QAService.
func NewQAService(questions questionRepository, courses qaCourseRepository, logger *zap.Logger) *QAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QAService{questions: questions, courses: courses, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// AddQuestion opens a thread on a course.
func (s *QAService) AddQuestion(ctx context.Context, courseID int64, userID, userName, text string) (*models.Question, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "question text is required")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}

	q := &models.Question{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		UserID:    userID,
		UserName:  userName,
		Question:  text,
		Answers:   []models.Answer{},
		CreatedAt: s.now(),
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, appErrors.Internal(err, "failed to save question")
	}
	return q, nil
}

// AddAnswer appends an answer. IsInstructor is set when the author teaches the course.
func (s *QAService) AddAnswer(ctx context.Context, questionID, userID, userName, text string) (*models.Question, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "answer text is required")
	}
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrQuestionNotFound, "question not found")
		}
		return nil, appErrors.Internal(err, "failed to load question")
	}

	isInstructor := false
	if course, err := s.courses.FindByID(ctx, question.CourseID); err == nil {
		isInstructor = course.InstructorID != "" && course.InstructorID == userID
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("failed to resolve course instructor", zap.Int64("course_id", question.CourseID), zap.Error(err))
	}

	updated, err := s.questions.AppendAnswer(ctx, questionID, models.Answer{
		ID:           uuid.NewString(),
		UserID:       userID,
		UserName:     userName,
		Answer:       text,
		IsInstructor: isInstructor,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrQuestionNotFound, "question not found")
		}
		return nil, appErrors.Internal(err, "failed to save answer")
	}
	return updated, nil
}

// List returns the questions of a course in the order they were asked.
func (s *QAService) List(ctx context.Context, courseID int64) ([]models.Question, error) {
	qs, err := s.questions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list questions")
	}
	return qs, nil
}
