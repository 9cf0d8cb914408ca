package commands

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/auth"
)

// statusReport is what `coursehub status` prints
type statusReport struct {
	APIURL       string     `json:"apiUrl" yaml:"apiUrl"`
	TokenStore   string     `json:"tokenStore" yaml:"tokenStore"`
	State        string     `json:"state" yaml:"state"`
	Email        string     `json:"email,omitempty" yaml:"email,omitempty"`
	Role         string     `json:"role,omitempty" yaml:"role,omitempty"`
	TokenPresent bool       `json:"tokenPresent" yaml:"tokenPresent"`
	IssuedAt     *time.Time `json:"issuedAt,omitempty" yaml:"issuedAt,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// NewStatusCmd creates the status command
func NewStatusCmd(app AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the API endpoint and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(app())
		},
	}
}

func runStatus(a *App) error {
	report := statusReport{
		APIURL:     a.Client.BaseURL(),
		TokenStore: a.Config.Token.Backend,
		State:      a.Session.State().String(),
	}

	if user := a.Session.User(); user != nil {
		report.Email = user.Email()
		report.Role = user.Role()
	}

	token, err := a.Tokens.Load()
	switch {
	case err == nil:
		report.TokenPresent = true
		if info, err := auth.InspectToken(token); err == nil {
			report.IssuedAt = info.IssuedAt
			report.ExpiresAt = info.ExpiresAt
		} else {
			a.Logger.Debug().Err(err).Msg("Token is not a readable JWT")
		}
	case !errors.Is(err, auth.ErrNoToken):
		a.Logger.Warn().Err(err).Msg("Failed to read auth token")
	}

	return a.Printer.Render(report, func(w io.Writer) error {
		fields := [][2]string{
			{"API", report.APIURL},
			{"Token store", report.TokenStore},
			{"Session", report.State},
			{"User", report.Email},
			{"Role", report.Role},
		}
		if report.ExpiresAt != nil {
			fields = append(fields, [2]string{"Token expires", expiryLabel(*report.ExpiresAt, time.Now())})
		}
		return printFields(w, fields)
	})
}

func expiryLabel(exp, now time.Time) string {
	stamp := exp.Local().Format(time.RFC3339)
	if now.After(exp) {
		return stamp + " (expired)"
	}
	return stamp + " (in " + exp.Sub(now).Round(time.Minute).String() + ")"
}
