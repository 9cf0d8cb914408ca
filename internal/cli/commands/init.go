package commands

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <api-url>",
		Short: "Point the CLI at a course marketplace API",
		Long: `Saves the backend API URL to ~/.config/coursehub/config.json.

COURSEHUB_API_URL still takes precedence when it is set.`,
		Example:     "  coursehub init https://courses.example.com/api",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{SkipAppAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0])
		},
	}
}

func runInit(cmd *cobra.Command, rawURL string) error {
	apiURL, err := normalizeAPIURL(rawURL)
	if err != nil {
		return err
	}

	previous, err := userconfig.GetAPIURL()
	if err != nil {
		return fmt.Errorf("failed to load user config: %w", err)
	}

	if err := userconfig.SetAPIURL(apiURL); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	out := cmd.OutOrStdout()
	if previous != "" && previous != apiURL {
		fmt.Fprintf(out, "✓ API URL changed from %s to %s\n", previous, apiURL)
	} else {
		fmt.Fprintf(out, "✓ API URL set to %s\n", apiURL)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'coursehub register' to create an account")
	fmt.Fprintln(out, "  2. Or 'coursehub login' if you already have one")

	return nil
}

// normalizeAPIURL accepts absolute http(s) URLs and drops any trailing slash
func normalizeAPIURL(raw string) (string, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid API URL %q: expected something like http://localhost:8080/api", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid API URL %q: scheme must be http or https", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
