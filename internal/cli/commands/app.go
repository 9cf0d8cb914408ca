package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/cli/auth"
	"github.com/coursehub-dev/coursehub/internal/cli/client"
	"github.com/coursehub-dev/coursehub/internal/cli/notify"
	"github.com/coursehub-dev/coursehub/internal/cli/output"
	"github.com/coursehub-dev/coursehub/internal/cli/services"
	"github.com/coursehub-dev/coursehub/internal/cli/session"
	"github.com/coursehub-dev/coursehub/internal/config"
	"github.com/coursehub-dev/coursehub/internal/logger"
)

// SkipAppAnnotation marks commands that run without an App
const SkipAppAnnotation = "coursehub/skip-app"

// ErrReported marks a failure the user has already been told about
var ErrReported = errors.New("already reported")

// Reported reports whether err was already shown to the user, either by a
// command or by the client's central failure handling
func Reported(err error) bool {
	if errors.Is(err, ErrReported) {
		return true
	}
	switch client.KindOf(err) {
	case client.KindAuth, client.KindAuthorization, client.KindServer:
		return true
	case client.KindTransport:
		return !errors.Is(err, context.Canceled)
	}
	return false
}

// App is everything a command needs, built once per process
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Tokens   auth.TokenStore
	Notifier notify.Notifier
	Client   *client.Client
	Session  *session.Store
	Auth     *services.AuthService
	Courses  *services.CourseService
	Quizzes  *services.QuizService
	Printer  *output.Printer

	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// OpenURL hands a URL to the desktop browser
	OpenURL func(url string) error

	redirect *loginRedirect
}

// AppFunc returns the App of the running command
type AppFunc func() *App

type appOptions struct {
	tokens   auth.TokenStore
	notifier notify.Notifier
	openURL  func(string) error
	in       io.Reader
}

// AppOption customizes NewApp
type AppOption func(*appOptions)

// WithTokenStore replaces the configured token backend
func WithTokenStore(ts auth.TokenStore) AppOption {
	return func(o *appOptions) {
		o.tokens = ts
	}
}

// WithNotifier replaces the console notifier
func WithNotifier(n notify.Notifier) AppOption {
	return func(o *appOptions) {
		o.notifier = n
	}
}

// WithBrowser replaces the desktop browser launcher
func WithBrowser(open func(string) error) AppOption {
	return func(o *appOptions) {
		o.openURL = open
	}
}

// WithInput sets where prompts read from
func WithInput(in io.Reader) AppOption {
	return func(o *appOptions) {
		o.in = in
	}
}

// NewApp wires the token store, client, services and session for cfg.
// Results go to out; logs, notifications and hints go to errOut.
func NewApp(cfg *config.Config, format output.Format, out, errOut io.Writer, opts ...AppOption) (*App, error) {
	o := &appOptions{openURL: openBrowser, in: os.Stdin}
	for _, opt := range opts {
		opt(o)
	}

	log := logger.Init(cfg.Logging.Level, cfg.Logging.Format, errOut)

	tokens := o.tokens
	if tokens == nil {
		var err error
		tokens, err = auth.New(cfg.Token.Backend, cfg.Token.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notify.NewConsole(errOut)
	}

	redirect := &loginRedirect{out: errOut}
	api := client.New(client.Options{
		BaseURL:        cfg.API.URL,
		Timeout:        cfg.API.Timeout,
		DefaultHeaders: client.DefaultOptions().DefaultHeaders,
	}, tokens,
		client.WithNotifier(notifier),
		client.WithNavigator(redirect),
		client.WithLogger(log.With().Str("component", "client").Logger()),
	)

	authService := services.NewAuthService(api)

	return &App{
		Config:   cfg,
		Logger:   log,
		Tokens:   tokens,
		Notifier: notifier,
		Client:   api,
		Session:  session.NewStore(authService, tokens, notifier, log.With().Str("component", "session").Logger()),
		Auth:     authService,
		Courses:  services.NewCourseService(api),
		Quizzes:  services.NewQuizService(api),
		Printer:  output.New(format, out),
		In:       o.in,
		Out:      out,
		ErrOut:   errOut,
		OpenURL:  o.openURL,
		redirect: redirect,
	}, nil
}

// Close tears the session down
func (a *App) Close() {
	a.Session.Close()
}

// RedirectedToLogin reports whether the backend rejected the session during this run
func (a *App) RedirectedToLogin() bool {
	return a.redirect.requested()
}

// requireSession is the client-side gate for commands that need a user
func (a *App) requireSession() error {
	if !a.Session.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}
	return nil
}

// loginRedirect is the CLI's navigation target: there is no login screen to
// show, so the first request prints how to get there
type loginRedirect struct {
	mu      sync.Mutex
	out     io.Writer
	current string
	asked   bool
}

func (r *loginRedirect) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if path == r.current || r.asked {
		return
	}
	r.asked = true
	if path == client.LoginPath {
		fmt.Fprintln(r.out, "Run 'coursehub login' to sign in again.")
	}
}

// at records the screen the running command stands for
func (r *loginRedirect) at(path string) {
	r.mu.Lock()
	r.current = path
	r.mu.Unlock()
}

func (r *loginRedirect) requested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.asked
}
