package models

import "time"

// QuestionType is the answer format of a quiz question
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionText           QuestionType = "TEXT"
	QuestionNumeric        QuestionType = "NUMERIC"
)

// Quiz mirrors the backend quiz document
type Quiz struct {
	ID               string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description,omitempty" yaml:"description,omitempty"`
	CourseID         string     `json:"courseId" yaml:"courseId"`
	Questions        []Question `json:"questions,omitempty" yaml:"questions,omitempty"`
	TimeLimitMinutes *int       `json:"timeLimitMinutes,omitempty" yaml:"timeLimitMinutes,omitempty"`
	PassingScore     *int       `json:"passingScore,omitempty" yaml:"passingScore,omitempty"`
	AllowRetake      *bool      `json:"allowRetake,omitempty" yaml:"allowRetake,omitempty"`
	MaxAttempts      *int       `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
	ShuffleQuestions *bool      `json:"shuffleQuestions,omitempty" yaml:"shuffleQuestions,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Question is one quiz question; which correct* field is set depends on Type
type Question struct {
	ID                   string       `json:"id,omitempty" yaml:"id,omitempty"`
	Question             string       `json:"question" yaml:"question"`
	Type                 QuestionType `json:"type,omitempty" yaml:"type,omitempty"`
	Options              []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer        *string      `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`
	CorrectAnswerIndex   *int         `json:"correctAnswerIndex,omitempty" yaml:"correctAnswerIndex,omitempty"`
	CorrectAnswerBoolean *bool        `json:"correctAnswerBoolean,omitempty" yaml:"correctAnswerBoolean,omitempty"`
	Explanation          string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Points               *int         `json:"points,omitempty" yaml:"points,omitempty"`
}

// QuizAnswers maps question IDs to the submitted answer
type QuizAnswers map[string]any

// QuizSubmission is the body of POST /quizzes/{id}/submit
type QuizSubmission struct {
	Answers QuizAnswers `json:"answers"`
}

// QuizResult is the opaque grading payload returned on submit
type QuizResult map[string]any
