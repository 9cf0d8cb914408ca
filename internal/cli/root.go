package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/commands"
	"github.com/coursehub-dev/coursehub/internal/cli/output"
	"github.com/coursehub-dev/coursehub/internal/config"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree. opts are applied to the App built for
// the command that runs.
func NewRootCmd(opts ...commands.AppOption) *cobra.Command {
	var (
		app          *commands.App
		outputFormat string
		debug        bool
	)
	getApp := func() *commands.App { return app }

	rootCmd := &cobra.Command{
		Use:   "coursehub",
		Short: "coursehub - the course marketplace from your terminal",
		Long: `coursehub CLI - Browse courses, enroll, take quizzes and publish your own.

Run 'coursehub init <api-url>' once, then 'coursehub login' or 'coursehub register'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app != nil || skipApp(cmd) {
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if debug {
				cfg.Logging.Level = "debug"
			}

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}

			app, err = commands.NewApp(cfg, format, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts...)
			if err != nil {
				return err
			}

			// restore the persisted session before any command runs
			app.Session.Initialize(cmd.Context())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:         "version",
		Short:       "Print the version number",
		Annotations: map[string]string{commands.SkipAppAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coursehub version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd(getApp))
	rootCmd.AddCommand(commands.NewRegisterCmd(getApp))
	rootCmd.AddCommand(commands.NewLogoutCmd(getApp))
	rootCmd.AddCommand(commands.NewWhoamiCmd(getApp))
	rootCmd.AddCommand(commands.NewStatusCmd(getApp))
	rootCmd.AddCommand(commands.NewCoursesCmd(getApp))
	rootCmd.AddCommand(commands.NewQuizzesCmd(getApp))
	rootCmd.AddCommand(commands.NewOpenCmd(getApp))

	return rootCmd
}

// skipApp is true for commands that need neither config nor a session
func skipApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[commands.SkipAppAnnotation] == "true" {
			return true
		}
		if c.Name() == "help" || c.Name() == cobra.ShellCompRequestCmd || c.Name() == "completion" {
			return true
		}
	}
	return false
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if !commands.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}
