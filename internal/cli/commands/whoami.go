package commands

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/models"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(app AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, app())
		},
	}
}

func runWhoami(cmd *cobra.Command, a *App) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	profile, err := a.Auth.Profile(cmd.Context())
	if err != nil {
		return err
	}

	// keep the session's copy current with what the backend just returned
	if err := a.Session.UpdateUser(profile); err != nil {
		return err
	}
	user := a.Session.User()

	return a.Printer.Render(user, func(w io.Writer) error {
		return printProfile(w, user)
	})
}

func printProfile(w io.Writer, user models.UserProfile) error {
	fields := [][2]string{
		{"ID", user.ID()},
		{"Name", user.Name()},
		{"Email", user.Email()},
		{"Role", strings.ToLower(user.Role())},
		{"Status", formatValue(user["status"])},
		{"Bio", formatValue(user["bio"])},
	}
	if enrolled, ok := user["enrolledCourses"].([]any); ok {
		fields = append(fields, [2]string{"Enrolled", formatCount(len(enrolled), "course")})
	}
	return printFields(w, fields)
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return formatValue(float64(n)) + " " + noun + "s"
}
