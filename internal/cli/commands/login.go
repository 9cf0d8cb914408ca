package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coursehub-dev/coursehub/internal/cli/client"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app AppFunc) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the course marketplace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, app(), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set COURSEHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set COURSEHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, a *App, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("COURSEHUB_EMAIL")
	}
	if password == "" {
		password = os.Getenv("COURSEHUB_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or COURSEHUB_EMAIL env var)")
	}

	if password == "" {
		var err error
		password, err = readPassword(a.In, a.ErrOut)
		if err != nil {
			return err
		}
	}

	a.redirect.at(client.LoginPath)
	a.Logger.Debug().Str("email", email).Str("api", a.Client.BaseURL()).Msg("Logging in")

	res := a.Session.Login(cmd.Context(), email, password)
	if !res.Success {
		return fmt.Errorf("%s: %w", res.Error, ErrReported)
	}

	user := a.Session.User()
	fmt.Fprintf(a.Out, "  User: %s (%s)\n", user.Name(), user.Email())
	if role := user.Role(); role != "" {
		fmt.Fprintf(a.Out, "  Role: %s\n", strings.ToLower(role))
	}

	return nil
}

// readPassword prompts on a terminal without echo
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or COURSEHUB_PASSWORD env var)")
	}

	fmt.Fprint(prompt, "Password: ")
	bytePassword, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
