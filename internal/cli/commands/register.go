package commands

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/models"
)

type registerOptions struct {
	name     string
	email    string
	password string
	role     string
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(app AppFunc) *cobra.Command {
	opts := &registerOptions{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Creates a student, instructor or admin account.

Missing fields are prompted for when running in a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, app(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Full name")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&opts.role, "role", "", "Role: student, instructor or admin (default student)")

	return cmd
}

func runRegister(cmd *cobra.Command, a *App, opts *registerOptions) error {
	interactive := isInteractive(a.In)

	var err error
	if opts.name == "" && interactive {
		if opts.name, err = promptText("Name", false, validateRequired("name")); err != nil {
			return err
		}
	}
	if opts.email == "" && interactive {
		if opts.email, err = promptText("Email", false, validateEmail); err != nil {
			return err
		}
	}
	if opts.password == "" && interactive {
		if opts.password, err = promptText("Password", true, validateRequired("password")); err != nil {
			return err
		}
	}

	if opts.name == "" || opts.email == "" || opts.password == "" {
		return fmt.Errorf("--name, --email and --password are required in non-interactive mode")
	}

	role, err := resolveRole(opts.role, interactive)
	if err != nil {
		return err
	}

	res := a.Session.Register(cmd.Context(), models.RegisterRequest{
		Name:     opts.name,
		Email:    opts.email,
		Password: opts.password,
		Role:     role,
	})
	if !res.Success {
		return fmt.Errorf("%s: %w", res.Error, ErrReported)
	}

	user := a.Session.User()
	fmt.Fprintf(a.Out, "  User: %s (%s)\n", user.Name(), user.Email())
	fmt.Fprintf(a.Out, "  Role: %s\n", strings.ToLower(string(role)))
	return nil
}

// resolveRole parses the --role flag, prompting when it is empty and a human is there
func resolveRole(raw string, interactive bool) (models.UserRole, error) {
	if raw != "" {
		role := models.UserRole(strings.ToUpper(strings.TrimSpace(raw)))
		for _, r := range models.Roles {
			if r == role {
				return role, nil
			}
		}
		return "", fmt.Errorf("invalid role %q (expected student, instructor or admin)", raw)
	}

	if !interactive {
		return models.RoleStudent, nil
	}
	return promptRole()
}

func promptRole() (models.UserRole, error) {
	type roleOption struct {
		Label string
		Role  models.UserRole
	}

	options := []roleOption{
		{Label: "Student - enroll in courses and take quizzes", Role: models.RoleStudent},
		{Label: "Instructor - create and publish courses", Role: models.RoleInstructor},
		{Label: "Admin - manage the platform", Role: models.RoleAdmin},
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a role",
		Items:     options,
		Templates: templates,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("role selection cancelled: %w", err)
	}
	return options[index].Role, nil
}

func promptText(label string, mask bool, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}
	if mask {
		prompt.Mask = '*'
	}

	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%s prompt cancelled: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(value), nil
}

func validateRequired(field string) promptui.ValidateFunc {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
