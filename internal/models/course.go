package models

import (
	"strconv"
	"strings"
	"time"
)

// CourseLevel is the difficulty of a course
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
	LevelExpert       CourseLevel = "EXPERT"
)

// CourseStatus is the lifecycle status of a course
type CourseStatus string

const (
	CourseDraft     CourseStatus = "DRAFT"
	CoursePublished CourseStatus = "PUBLISHED"
	CourseArchived  CourseStatus = "ARCHIVED"
	CourseSuspended CourseStatus = "SUSPENDED"
)

// LessonType is the kind of content a lesson holds
type LessonType string

const (
	LessonVideo      LessonType = "VIDEO"
	LessonText       LessonType = "TEXT"
	LessonQuiz       LessonType = "QUIZ"
	LessonAssignment LessonType = "ASSIGNMENT"
	LessonDocument   LessonType = "DOCUMENT"
)

// Course mirrors the backend course document
type Course struct {
	ID                 string       `json:"id,omitempty" yaml:"id,omitempty"`
	Title              string       `json:"title" yaml:"title"`
	Description        string       `json:"description" yaml:"description"`
	InstructorID       string       `json:"instructorId,omitempty" yaml:"instructorId,omitempty"`
	InstructorName     string       `json:"instructorName,omitempty" yaml:"instructorName,omitempty"`
	Category           string       `json:"category" yaml:"category"`
	Level              CourseLevel  `json:"level,omitempty" yaml:"level,omitempty"`
	Duration           string       `json:"duration,omitempty" yaml:"duration,omitempty"`
	Price              *float64     `json:"price,omitempty" yaml:"price,omitempty"`
	Rating             *float64     `json:"rating,omitempty" yaml:"rating,omitempty"`
	EnrollmentCount    int          `json:"enrollmentCount,omitempty" yaml:"enrollmentCount,omitempty"`
	ImageURL           string       `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Skills             []string     `json:"skills,omitempty" yaml:"skills,omitempty"`
	Lessons            []Lesson     `json:"lessons,omitempty" yaml:"lessons,omitempty"`
	Status             CourseStatus `json:"status,omitempty" yaml:"status,omitempty"`
	IsPublished        *bool        `json:"isPublished,omitempty" yaml:"isPublished,omitempty"`
	AllowCertification *bool        `json:"allowCertification,omitempty" yaml:"allowCertification,omitempty"`
	PassingScore       *int         `json:"passingScore,omitempty" yaml:"passingScore,omitempty"`
	CreatedAt          *time.Time   `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt          *time.Time   `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Lesson is a single unit of a course
type Lesson struct {
	ID          string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Duration    string     `json:"duration,omitempty" yaml:"duration,omitempty"`
	Type        LessonType `json:"type,omitempty" yaml:"type,omitempty"`
	Content     string     `json:"content,omitempty" yaml:"content,omitempty"`
	VideoURL    string     `json:"videoUrl,omitempty" yaml:"videoUrl,omitempty"`
	QuizID      string     `json:"quizId,omitempty" yaml:"quizId,omitempty"`
	Order       int        `json:"order,omitempty" yaml:"order,omitempty"`
}

// PriceLabel renders the price the way the catalog shows it
func (c *Course) PriceLabel() string {
	if c.Price == nil || *c.Price <= 0 {
		return "Free"
	}
	return formatMoney(*c.Price)
}

// Statistics is the opaque payload of GET /courses/statistics
type Statistics map[string]any

// EnrollmentResponse is returned by POST /courses/{id}/enroll
type EnrollmentResponse struct {
	Message string `json:"message"`
}

func formatMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	return "$" + strings.TrimSuffix(s, ".00")
}
