// Package notify carries user-facing notifications (the toast messages of the
// web client) from the session store and API client to the terminal.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level is the kind of notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier delivers a message to the user
type Notifier interface {
	Notify(level Level, message string)
}

// Success sends a success notification through n
func Success(n Notifier, message string) {
	n.Notify(LevelSuccess, message)
}

// Error sends an error notification through n
func Error(n Notifier, message string) {
	n.Notify(LevelError, message)
}

// Nop discards every notification
var Nop Notifier = nopNotifier{}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#facc15")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")).Bold(true)
)

// Console writes one styled line per notification
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", badge(level), message)
}

func badge(level Level) string {
	switch level {
	case LevelSuccess:
		return successStyle.Render("✓")
	case LevelWarning:
		return warningStyle.Render("!")
	case LevelError:
		return errorStyle.Render("✗")
	default:
		return infoStyle.Render("•")
	}
}

// Notification is a single recorded message
type Notification struct {
	Level   Level
	Message string
}

// Recorder keeps every notification in memory
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.items = append(r.items, Notification{Level: level, Message: message})
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications in order
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Messages returns the recorded messages of the given level
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.items {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset forgets everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}
