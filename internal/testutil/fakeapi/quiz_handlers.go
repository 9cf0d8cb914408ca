package fakeapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coursehub-dev/coursehub/internal/models"
)

func (s *Server) getQuiz(c *gin.Context) {
	s.mu.Lock()
	quiz, ok := s.quizzes[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (s *Server) quizzesByCourse(c *gin.Context) {
	courseID := c.Param("courseId")

	s.mu.Lock()
	quizzes := make([]models.Quiz, 0)
	for _, q := range s.quizzes {
		if q.CourseID == courseID {
			quizzes = append(quizzes, q)
		}
	}
	s.mu.Unlock()

	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	c.JSON(http.StatusOK, quizzes)
}

func (s *Server) createQuiz(c *gin.Context) {
	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(quiz.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quiz title is required"})
		return
	}

	course, ok := s.Course(quiz.CourseID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		return
	}
	if !canManage(currentAccount(c), course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the course owner"})
		return
	}

	quiz.ID = ""
	assignQuestionIDs(quiz.Questions)
	now := time.Now().UTC()
	quiz.CreatedAt = &now
	quiz.UpdatedAt = &now

	c.JSON(http.StatusOK, s.AddQuiz(quiz))
}

func (s *Server) updateQuiz(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	existing, ok := s.quizzes[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quiz not found"})
		return
	}

	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, _ := s.Course(existing.CourseID)
	if !canManage(currentAccount(c), course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the course owner"})
		return
	}

	quiz.ID = existing.ID
	quiz.CourseID = existing.CourseID
	quiz.CreatedAt = existing.CreatedAt
	assignQuestionIDs(quiz.Questions)
	now := time.Now().UTC()
	quiz.UpdatedAt = &now

	c.JSON(http.StatusOK, s.AddQuiz(quiz))
}

func (s *Server) submitQuiz(c *gin.Context) {
	s.mu.Lock()
	quiz, ok := s.quizzes[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quiz not found"})
		return
	}

	var submission models.QuizSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, grade(quiz, submission.Answers))
}

func assignQuestionIDs(questions []models.Question) {
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = newID()
		}
	}
}

// grade scores answers keyed by question ID (or 1-based position when the
// question has no ID) against the stored correct answers
func grade(quiz models.Quiz, answers models.QuizAnswers) gin.H {
	earned, total, correct := 0, 0, 0
	for i, q := range quiz.Questions {
		points := 1
		if q.Points != nil {
			points = *q.Points
		}
		total += points

		key := q.ID
		if key == "" {
			key = fmt.Sprint(i + 1)
		}
		answer, ok := answers[key]
		if ok && isCorrect(q, answer) {
			earned += points
			correct++
		}
	}

	percentage := 0
	if total > 0 {
		percentage = earned * 100 / total
	}
	passing := 70
	if quiz.PassingScore != nil {
		passing = *quiz.PassingScore
	}

	return gin.H{
		"quizId":         quiz.ID,
		"score":          earned,
		"totalPoints":    total,
		"correctAnswers": correct,
		"totalQuestions": len(quiz.Questions),
		"percentage":     percentage,
		"passed":         percentage >= passing,
	}
}

func isCorrect(q models.Question, answer any) bool {
	switch q.Type {
	case models.QuestionMultipleChoice:
		n, ok := answer.(float64)
		return ok && q.CorrectAnswerIndex != nil && int(n) == *q.CorrectAnswerIndex
	case models.QuestionTrueFalse:
		b, ok := answer.(bool)
		return ok && q.CorrectAnswerBoolean != nil && b == *q.CorrectAnswerBoolean
	default:
		if q.CorrectAnswer == nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(fmt.Sprint(answer)), strings.TrimSpace(*q.CorrectAnswer))
	}
}
