package repository

import (
	"context"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// QuestionRepository stores append-only Q&A threads.
type QuestionRepository struct {
	questions *collection[[]models.Question]
}

// NewQuestionRepository creates a question repository.
func NewQuestionRepository(store kvstore.Store) *QuestionRepository {
	return &QuestionRepository{
		questions: newCollection(store, KeyQuestions, func() []models.Question { return []models.Question{} }),
	}
}

// Create appends a question.
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	return r.questions.update(ctx, func(qs *[]models.Question, _ bool) (bool, error) {
		if q.Answers == nil {
			q.Answers = []models.Answer{}
		}
		*qs = append(*qs, *q)
		return true, nil
	})
}

// FindByID returns a question by identifier.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	qs, err := r.questions.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range qs {
		if qs[i].ID == id {
			return &qs[i], nil
		}
	}
	return nil, ErrNotFound
}

// AppendAnswer adds an answer to the question thread.
func (r *QuestionRepository) AppendAnswer(ctx context.Context, questionID string, answer models.Answer) (*models.Question, error) {
	var out models.Question
	err := r.questions.update(ctx, func(qs *[]models.Question, _ bool) (bool, error) {
		for i := range *qs {
			if (*qs)[i].ID == questionID {
				(*qs)[i].Answers = append((*qs)[i].Answers, answer)
				out = (*qs)[i]
				return true, nil
			}
		}
		return false, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByCourse returns a course's questions in insertion order.
func (r *QuestionRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Question, error) {
	qs, err := r.questions.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Question, 0)
	for _, q := range qs {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	return out, nil
}
