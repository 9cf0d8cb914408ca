package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub-dev/coursehub/internal/cli/auth"
	"github.com/coursehub-dev/coursehub/internal/cli/client"
	"github.com/coursehub-dev/coursehub/internal/cli/notify"
	"github.com/coursehub-dev/coursehub/internal/cli/output"
	"github.com/coursehub-dev/coursehub/internal/cli/session"
	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
	"github.com/coursehub-dev/coursehub/internal/config"
	"github.com/coursehub-dev/coursehub/internal/models"
	"github.com/coursehub-dev/coursehub/internal/testutil/fakeapi"
)

type testEnv struct {
	app      *App
	fake     *fakeapi.Server
	tokens   *auth.MemoryStore
	notifier *notify.Recorder
	out      *bytes.Buffer
	errOut   *bytes.Buffer
	opened   []string
}

func newTestEnv(t *testing.T, fakeOpts ...fakeapi.Option) *testEnv {
	t.Helper()
	fake, apiURL := fakeapi.Start(t, fakeOpts...)

	env := &testEnv{
		fake:     fake,
		tokens:   auth.NewMemoryStore(),
		notifier: notify.NewRecorder(),
		out:      &bytes.Buffer{},
		errOut:   &bytes.Buffer{},
	}

	cfg := &config.Config{
		API:     config.APIConfig{URL: apiURL, Timeout: 5 * time.Second},
		Web:     config.WebConfig{URL: "http://localhost:3000"},
		Token:   config.TokenConfig{Backend: "memory"},
		Logging: config.LoggingConfig{Level: "disabled", Format: "console"},
	}

	app, err := NewApp(cfg, output.FormatTable, env.out, env.errOut,
		WithTokenStore(env.tokens),
		WithNotifier(env.notifier),
		WithInput(strings.NewReader("")),
		WithBrowser(func(url string) error {
			env.opened = append(env.opened, url)
			return nil
		}),
	)
	require.NoError(t, err)
	env.app = app
	t.Cleanup(app.Close)
	return env
}

func (e *testEnv) appFunc() AppFunc {
	return func() *App { return e.app }
}

// run executes cmd with args the way the root command would
func (e *testEnv) run(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(e.out)
	cmd.SetErr(e.errOut)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(context.Background())
}

func (e *testEnv) addUser(t *testing.T, name, email string, role models.UserRole) {
	t.Helper()
	_, err := e.fake.AddUser(name, email, "secret1", role)
	require.NoError(t, err)
}

func (e *testEnv) signIn(t *testing.T, email string) {
	t.Helper()
	e.app.Session.Initialize(context.Background())
	res := e.app.Session.Login(context.Background(), email, "secret1")
	require.True(t, res.Success, res.Error)
	e.notifier.Reset()
	e.out.Reset()
	e.errOut.Reset()
}

func (e *testEnv) useJSON() {
	e.app.Printer = output.New(output.FormatJSON, e.out)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLogin(t *testing.T) {
	t.Setenv("COURSEHUB_EMAIL", "")
	t.Setenv("COURSEHUB_PASSWORD", "")

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.addUser(t, "Ada", "ada@example.com", models.RoleInstructor)
		env.app.Session.Initialize(context.Background())

		err := env.run(NewLoginCmd(env.appFunc()), "--email", "ada@example.com", "--password", "secret1")
		require.NoError(t, err)

		assert.True(t, env.app.Session.IsAuthenticated())
		assert.Contains(t, env.out.String(), "User: Ada (ada@example.com)")
		assert.Contains(t, env.out.String(), "Role: instructor")
		assert.Equal(t, []string{session.MsgLoginSuccess}, env.notifier.Messages(notify.LevelSuccess))

		token, err := env.tokens.Load()
		require.NoError(t, err)
		info, err := auth.InspectToken(token)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", info.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.addUser(t, "Ada", "ada@example.com", models.RoleStudent)
		env.app.Session.Initialize(context.Background())

		err := env.run(NewLoginCmd(env.appFunc()), "--email", "ada@example.com", "--password", "nope")
		require.Error(t, err)
		assert.True(t, Reported(err))
		assert.Equal(t, []string{"Invalid email or password"}, env.notifier.Messages(notify.LevelError))
		assert.False(t, env.app.Session.IsAuthenticated())

		_, err = env.tokens.Load()
		assert.ErrorIs(t, err, auth.ErrNoToken)
	})

	t.Run("environment credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.addUser(t, "Bo", "bo@example.com", models.RoleStudent)
		t.Setenv("COURSEHUB_EMAIL", "bo@example.com")
		t.Setenv("COURSEHUB_PASSWORD", "secret1")

		require.NoError(t, env.run(NewLoginCmd(env.appFunc())))
		assert.Equal(t, "bo@example.com", env.app.Session.User().Email())
	})

	t.Run("non-interactive without password", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.run(NewLoginCmd(env.appFunc()), "--email", "a@b.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-interactive mode")
		assert.False(t, Reported(err))
	})
}

func TestRegister(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		env := newTestEnv(t)
		env.app.Session.Initialize(context.Background())

		err := env.run(NewRegisterCmd(env.appFunc()),
			"--name", "Ada", "--email", "ada@example.com", "--password", "secret1", "--role", "instructor")
		require.NoError(t, err)

		user := env.app.Session.User()
		assert.Equal(t, "instructor", user.Role())
		assert.Contains(t, env.out.String(), "Role: instructor")
		assert.Equal(t, []string{session.MsgRegisterSuccess}, env.notifier.Messages(notify.LevelSuccess))
	})

	t.Run("defaults to student", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.run(NewRegisterCmd(env.appFunc()), "--name", "Bo", "--email", "bo@example.com", "--password", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "student", env.app.Session.User().Role())
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.addUser(t, "Ada", "ada@example.com", models.RoleStudent)

		err := env.run(NewRegisterCmd(env.appFunc()), "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")
		require.Error(t, err)
		assert.True(t, Reported(err))
		assert.Equal(t, []string{"Email already exists"}, env.notifier.Messages(notify.LevelError))
	})

	t.Run("invalid role", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.run(NewRegisterCmd(env.appFunc()), "--name", "Ada", "--email", "a@b.com", "--password", "secret1", "--role", "dean")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid role "dean"`)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.run(NewRegisterCmd(env.appFunc()), "--email", "a@b.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-interactive mode")
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "Ada", "ada@example.com", models.RoleStudent)
	env.signIn(t, "ada@example.com")

	require.NoError(t, env.run(NewLogoutCmd(env.appFunc())))
	require.NoError(t, env.run(NewLogoutCmd(env.appFunc())))

	assert.False(t, env.app.Session.IsAuthenticated())
	_, err := env.tokens.Load()
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestWhoami(t *testing.T) {
	t.Run("requires session", func(t *testing.T) {
		env := newTestEnv(t)
		env.app.Session.Initialize(context.Background())

		err := env.run(NewWhoamiCmd(env.appFunc()))
		assert.ErrorIs(t, err, session.ErrNotAuthenticated)
		assert.Empty(t, env.fake.Requests())
	})

	t.Run("prints profile", func(t *testing.T) {
		env := newTestEnv(t)
		env.addUser(t, "Ada", "ada@example.com", models.RoleInstructor)
		env.signIn(t, "ada@example.com")

		require.NoError(t, env.run(NewWhoamiCmd(env.appFunc())))
		assert.Contains(t, env.out.String(), "Ada")
		assert.Contains(t, env.out.String(), "instructor")
		assert.Contains(t, env.out.String(), "0 courses")
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(t)
		env.addUser(t, "Ada", "ada@example.com", models.RoleInstructor)
		env.signIn(t, "ada@example.com")
		env.useJSON()

		require.NoError(t, env.run(NewWhoamiCmd(env.appFunc())))
		var got map[string]any
		require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
		assert.Equal(t, "ada@example.com", got["email"])
	})
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "Ada", "ada@example.com", models.RoleStudent)
	env.signIn(t, "ada@example.com")

	require.NoError(t, env.run(NewStatusCmd(env.appFunc())))
	out := env.out.String()
	assert.Contains(t, out, "authenticated")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Token expires")

	env.out.Reset()
	env.useJSON()
	env.app.Session.Logout()
	require.NoError(t, env.run(NewStatusCmd(env.appFunc())))

	var report statusReport
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &report))
	assert.Equal(t, "anonymous", report.State)
	assert.False(t, report.TokenPresent)
	assert.Equal(t, "memory", report.TokenStore)
}

const courseYAML = `title: Go in Practice
description: Idiomatic Go for services
category: Programming
level: INTERMEDIATE
price: 49
skills: [go, testing]
lessons:
  - title: Goroutines
    type: VIDEO
    duration: 12m
`

func TestCourses_InstructorToStudentFlow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "Ada", "ada@example.com", models.RoleInstructor)
	env.addUser(t, "Bo", "bo@example.com", models.RoleStudent)
	env.signIn(t, "ada@example.com")

	// create as instructor
	env.useJSON()
	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "create", "-f", writeFile(t, "course.yaml", courseYAML)))
	var created models.Course
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, models.CourseDraft, created.Status)
	assert.Equal(t, []string{"go", "testing"}, created.Skills)
	assert.Contains(t, env.errOut.String(), "Created course "+created.ID)

	// drafts are not listed
	env.out.Reset()
	env.app.Printer = output.New(output.FormatTable, env.out)
	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "ls"))
	assert.Contains(t, env.out.String(), "No published courses yet.")

	env.out.Reset()
	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "publish", created.ID))
	assert.Contains(t, env.out.String(), "published")

	env.out.Reset()
	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "ls"))
	assert.Contains(t, env.out.String(), "Go in Practice")
	assert.Contains(t, env.out.String(), "$49")
	assert.Contains(t, env.out.String(), "Page 1 of 1 (1 courses)")

	// enroll as student
	env.app.Session.Logout()
	env.signIn(t, "bo@example.com")

	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "enroll", created.ID))
	assert.Contains(t, env.out.String(), "Enrolled successfully")

	err := env.run(NewCoursesCmd(env.appFunc()), "enroll", created.ID)
	require.Error(t, err)
	assert.False(t, Reported(err))
	assert.Equal(t, client.KindValidation, client.KindOf(err))
	assert.Contains(t, err.Error(), "Already enrolled in this course")
	assert.Empty(t, env.notifier.Messages(notify.LevelError))

	// students may not create courses
	err = env.run(NewCoursesCmd(env.appFunc()), "create", "-f", writeFile(t, "course.yaml", courseYAML))
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Equal(t, []string{client.MsgAccessDenied}, env.notifier.Messages(notify.LevelError))

	course, ok := env.fake.Course(created.ID)
	require.True(t, ok)
	assert.Equal(t, 1, course.EnrollmentCount)
}

func TestCourses_ShowAndSearch(t *testing.T) {
	env := newTestEnv(t)
	price := 19.5
	course := env.fake.AddCourse(models.Course{
		Title:       "Concurrency Patterns",
		Description: "Pipelines and fan-out",
		Category:    "Programming",
		Level:       models.LevelAdvanced,
		Price:       &price,
		Status:      models.CoursePublished,
		Lessons: []models.Lesson{
			{Title: "Pipelines", Type: models.LessonText},
			{Title: "Fan-out", Type: models.LessonVideo},
		},
	})
	env.fake.AddCourse(models.Course{Title: "Intro to SQL", Category: "Data", Status: models.CoursePublished})

	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "show", course.ID))
	out := env.out.String()
	assert.Contains(t, out, "Concurrency Patterns")
	assert.Contains(t, out, "$19.50")
	assert.Contains(t, out, "Fan-out")
	assert.Contains(t, out, "Pipelines and fan-out")

	env.out.Reset()
	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "search", "pattern", "--level", "advanced", "--max-price", "20"))
	assert.Contains(t, env.out.String(), "Concurrency Patterns")
	assert.NotContains(t, env.out.String(), "Intro to SQL")

	env.out.Reset()
	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "search", "--category", "Cooking"))
	assert.Contains(t, env.out.String(), "No courses match.")

	err := env.run(NewCoursesCmd(env.appFunc()), "show", "missing")
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, 404))
}

func TestCourses_RequireSession(t *testing.T) {
	env := newTestEnv(t)
	env.app.Session.Initialize(context.Background())

	for _, args := range [][]string{
		{"enroll", "c1"},
		{"publish", "c1"},
		{"stats"},
		{"create", "-f", "course.json"},
		{"update", "c1", "-f", "course.json"},
	} {
		err := env.run(NewCoursesCmd(env.appFunc()), args...)
		assert.ErrorIs(t, err, session.ErrNotAuthenticated, "courses %v", args)
	}
	assert.Empty(t, env.fake.Requests())
}

func TestCourses_StatsAsAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "Root", "root@example.com", models.RoleAdmin)
	env.fake.AddCourse(models.Course{Title: "A", Category: "Programming", Status: models.CoursePublished})
	env.signIn(t, "root@example.com")

	require.NoError(t, env.run(NewCoursesCmd(env.appFunc()), "stats"))
	assert.Contains(t, env.out.String(), "publishedCourses:")
	assert.Contains(t, env.out.String(), "totalCourses:")
}

func TestCourses_ExpiredSessionIsPurged(t *testing.T) {
	var skew atomic.Int64
	clock := func() time.Time { return time.Now().Add(time.Duration(skew.Load())) }

	env := newTestEnv(t, fakeapi.WithClock(clock), fakeapi.WithTokenTTL(time.Hour))
	env.addUser(t, "Bo", "bo@example.com", models.RoleStudent)
	course := env.fake.AddCourse(models.Course{Title: "Go", Category: "Programming", Status: models.CoursePublished})
	env.signIn(t, "bo@example.com")

	skew.Store(int64(2 * time.Hour))

	err := env.run(NewCoursesCmd(env.appFunc()), "enroll", course.ID)
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Equal(t, client.KindAuth, client.KindOf(err))
	assert.Equal(t, []string{client.MsgSessionExpired}, env.notifier.Messages(notify.LevelError))
	assert.True(t, env.app.RedirectedToLogin())
	assert.Equal(t, 1, strings.Count(env.errOut.String(), "Run 'coursehub login' to sign in again."))

	_, err = env.tokens.Load()
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestInitialize_DropsRejectedToken(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.tokens.Save("not-a-token"))

	env.app.Session.Initialize(context.Background())

	assert.Equal(t, session.Anonymous, env.app.Session.State())
	_, err := env.tokens.Load()
	assert.ErrorIs(t, err, auth.ErrNoToken)
	assert.Equal(t, []string{"POST /api/auth/validate"}, env.fake.Requests())
}

func TestQuizzes(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "Bo", "bo@example.com", models.RoleStudent)
	env.signIn(t, "bo@example.com")

	idx, yes, pass := 1, true, 50
	quiz := env.fake.AddQuiz(models.Quiz{
		Title:        "Basics",
		CourseID:     "c1",
		PassingScore: &pass,
		Questions: []models.Question{
			{ID: "q1", Question: "Which keyword starts a goroutine?", Type: models.QuestionMultipleChoice,
				Options: []string{"async", "go", "spawn"}, CorrectAnswerIndex: &idx},
			{ID: "q2", Question: "Channels can be closed", Type: models.QuestionTrueFalse, CorrectAnswerBoolean: &yes},
		},
	})

	t.Run("ls", func(t *testing.T) {
		env.out.Reset()
		require.NoError(t, env.run(NewQuizzesCmd(env.appFunc()), "ls", "--course", "c1"))
		assert.Contains(t, env.out.String(), "Basics")
		assert.Contains(t, env.out.String(), "50%")
	})

	t.Run("show", func(t *testing.T) {
		env.out.Reset()
		require.NoError(t, env.run(NewQuizzesCmd(env.appFunc()), "show", quiz.ID))
		assert.Contains(t, env.out.String(), "1) go")
		assert.Contains(t, env.out.String(), "true / false")
	})

	t.Run("submit wrapped answers", func(t *testing.T) {
		env.out.Reset()
		env.useJSON()
		defer func() { env.app.Printer = output.New(output.FormatTable, env.out) }()

		path := writeFile(t, "answers.json", `{"answers": {"q1": 1, "q2": false}}`)
		require.NoError(t, env.run(NewQuizzesCmd(env.appFunc()), "submit", quiz.ID, "-f", path))

		var result map[string]any
		require.NoError(t, json.Unmarshal(env.out.Bytes(), &result))
		assert.Equal(t, float64(1), result["score"])
		assert.Equal(t, true, result["passed"])
	})

	t.Run("submit plain answers from yaml", func(t *testing.T) {
		env.out.Reset()
		path := writeFile(t, "answers.yaml", "q1: 0\nq2: true\n")
		require.NoError(t, env.run(NewQuizzesCmd(env.appFunc()), "submit", quiz.ID, "-f", path))
		assert.Contains(t, env.out.String(), "✓ Passed")
	})

	t.Run("students cannot author", func(t *testing.T) {
		env.notifier.Reset()
		path := writeFile(t, "quiz.json", `{"title":"Mine","courseId":"c1"}`)
		err := env.run(NewQuizzesCmd(env.appFunc()), "create", "-f", path)
		require.Error(t, err)
		assert.Equal(t, []string{client.MsgAccessDenied}, env.notifier.Messages(notify.LevelError))
	})
}

func TestOpen(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run(NewOpenCmd(env.appFunc()), "--print", "abc"))
	assert.Equal(t, "http://localhost:3000/courses/abc\n", env.out.String())

	require.NoError(t, env.run(NewOpenCmd(env.appFunc())))
	assert.Equal(t, []string{"http://localhost:3000/courses"}, env.opened)
}

func TestInit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"https://courses.example.com/api/"})
	require.NoError(t, cmd.Execute())

	saved, err := userconfig.GetAPIURL()
	require.NoError(t, err)
	assert.Equal(t, "https://courses.example.com/api", saved)
	assert.Contains(t, out.String(), "API URL set to https://courses.example.com/api")

	cmd = NewInitCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"ftp://example.com"})
	assert.Error(t, cmd.Execute())
}

func TestReported(t *testing.T) {
	assert.True(t, Reported(errors.Join(errors.New("x"), ErrReported)))
	assert.True(t, Reported(&client.HTTPError{StatusCode: 401}))
	assert.True(t, Reported(&client.HTTPError{StatusCode: 503}))
	assert.True(t, Reported(&client.TransportError{Err: errors.New("refused")}))
	assert.False(t, Reported(&client.TransportError{Err: context.Canceled}))
	assert.False(t, Reported(&client.HTTPError{StatusCode: 400}))
	assert.False(t, Reported(errors.New("plain")))
}

func TestAnswersOf(t *testing.T) {
	wrapped := map[string]any{"answers": map[string]any{"q1": 1.0}}
	assert.Equal(t, models.QuizAnswers{"q1": 1.0}, answersOf(wrapped))

	plain := map[string]any{"q1": 1.0, "q2": true}
	assert.Equal(t, models.QuizAnswers(plain), answersOf(plain))
}
