// Package fakeapi is an in-memory stand-in for the course marketplace
// backend. It serves the REST endpoints the client consumes under /api and
// is meant for tests only.
package fakeapi

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub-dev/coursehub/internal/models"
)

// account is a registered user as the backend stores it
type account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         models.UserRole
	Enrolled     []string
	CreatedAt    time.Time
}

// profile is the user mapping the API returns; no credentials
func (a account) profile() models.UserProfile {
	enrolled := make([]any, 0, len(a.Enrolled))
	for _, id := range a.Enrolled {
		enrolled = append(enrolled, id)
	}
	return models.UserProfile{
		"id":              a.ID,
		"name":            a.Name,
		"email":           a.Email,
		"role":            strings.ToLower(string(a.Role)),
		"enrolledCourses": enrolled,
		"status":          "ACTIVE",
	}
}

// Server is the fake backend
type Server struct {
	router *gin.Engine
	logger zerolog.Logger
	tokens *tokenIssuer

	mu       sync.Mutex
	accounts map[string]account // by ID
	emails   map[string]string  // email -> ID
	courses  map[string]models.Course
	quizzes  map[string]models.Quiz
	requests []string
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock replaces time.Now for token issuing and validation
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.tokens.now = now
	}
}

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokens.ttl = ttl
	}
}

// New creates an empty backend with a random signing key
func New(opts ...Option) *Server {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("fakeapi: failed to generate JWT secret: %v", err))
	}

	s := &Server{
		logger:   zerolog.Nop(),
		tokens:   &tokenIssuer{secret: secret, ttl: 24 * time.Hour, now: time.Now},
		accounts: make(map[string]account),
		emails:   make(map[string]string),
		courses:  make(map[string]models.Course),
		quizzes:  make(map[string]models.Quiz),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// Start serves s on a local port until the test ends and returns the API base URL
func Start(t testing.TB, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(opts...)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv.URL + "/api"
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.recordRequest())

	api := s.router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.POST("/validate", s.validate)
	authGroup.GET("/profile", s.requireAuth(), s.profile)

	courses := api.Group("/courses")
	courses.GET("/public", s.publishedCourses)
	courses.GET("/search", s.searchCourses)
	courses.GET("/statistics", s.requireAuth(), s.requireRole(models.RoleAdmin), s.courseStatistics)
	courses.GET("/:id", s.getCourse)
	courses.POST("", s.requireAuth(), s.requireRole(models.RoleInstructor, models.RoleAdmin), s.createCourse)
	courses.PUT("/:id", s.requireAuth(), s.requireRole(models.RoleInstructor, models.RoleAdmin), s.updateCourse)
	courses.POST("/:id/enroll", s.requireAuth(), s.enroll)
	courses.POST("/:id/publish", s.requireAuth(), s.requireRole(models.RoleInstructor, models.RoleAdmin), s.publishCourse)

	quizzes := api.Group("/quizzes", s.requireAuth())
	quizzes.GET("/course/:courseId", s.quizzesByCourse)
	quizzes.GET("/:id", s.getQuiz)
	quizzes.POST("", s.requireRole(models.RoleInstructor, models.RoleAdmin), s.createQuiz)
	quizzes.PUT("/:id", s.requireRole(models.RoleInstructor, models.RoleAdmin), s.updateQuiz)
	quizzes.POST("/:id/submit", s.submitQuiz)
}

func (s *Server) recordRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.Path)
		s.mu.Unlock()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("fake API request")
	}
}

// Requests returns "METHOD /path" for every request served so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// AddUser registers an account directly and returns its profile
func (s *Server) AddUser(name, email, password string, role models.UserRole) (models.UserProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("generating password hash: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := s.emails[key]; exists {
		return nil, fmt.Errorf("email already exists")
	}

	acct := account{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	s.accounts[acct.ID] = acct
	s.emails[key] = acct.ID
	return acct.profile(), nil
}

// IssueToken signs a token for a registered email
func (s *Server) IssueToken(email string) (string, error) {
	acct, ok := s.accountByEmail(email)
	if !ok {
		return "", fmt.Errorf("user %s not found", email)
	}
	return s.tokens.issue(acct.ID, acct.Email, string(acct.Role))
}

// AddCourse stores c as-is, assigning an ID and timestamps when missing
func (s *Server) AddCourse(c models.Course) models.Course {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt == nil {
		now := time.Now().UTC()
		c.CreatedAt = &now
	}
	if c.UpdatedAt == nil {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = models.CourseDraft
	}
	published := c.Status == models.CoursePublished
	c.IsPublished = &published

	s.mu.Lock()
	s.courses[c.ID] = c
	s.mu.Unlock()
	return c
}

// Course returns the stored course
func (s *Server) Course(id string) (models.Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	return c, ok
}

// AddQuiz stores q, assigning an ID when missing
func (s *Server) AddQuiz(q models.Quiz) models.Quiz {
	if q.ID == "" {
		q.ID = newID()
	}
	s.mu.Lock()
	s.quizzes[q.ID] = q
	s.mu.Unlock()
	return q
}

func (s *Server) accountByID(id string) (account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	return acct, ok
}

func (s *Server) accountByEmail(email string) (account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return account{}, false
	}
	return s.accounts[id], true
}

// newID returns a lexically sortable unique ID
func newID() string {
	return ulid.Make().String()
}
