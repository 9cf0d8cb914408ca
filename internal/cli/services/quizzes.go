package services

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/models"
)

// QuizService talks to the /quizzes endpoints
type QuizService struct {
	api Requester
}

func NewQuizService(api Requester) *QuizService {
	return &QuizService{api: api}
}

func (s *QuizService) Get(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.api.Get(ctx, pathOf("/quizzes", id), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ListByCourse returns every quiz attached to a course
func (s *QuizService) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := s.api.Get(ctx, pathOf("/quizzes/course", courseID), nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (s *QuizService) Create(ctx context.Context, quiz *models.Quiz) (*models.Quiz, error) {
	var created models.Quiz
	if err := s.api.Post(ctx, "/quizzes", quiz, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *QuizService) Update(ctx context.Context, id string, quiz *models.Quiz) (*models.Quiz, error) {
	var updated models.Quiz
	if err := s.api.Put(ctx, pathOf("/quizzes", id), quiz, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Submit sends answers for grading and returns the backend's result as-is
func (s *QuizService) Submit(ctx context.Context, id string, answers models.QuizAnswers) (models.QuizResult, error) {
	var result models.QuizResult
	if err := s.api.Post(ctx, pathOf("/quizzes", id, "submit"), models.QuizSubmission{Answers: answers}, &result); err != nil {
		return nil, err
	}
	return result, nil
}
