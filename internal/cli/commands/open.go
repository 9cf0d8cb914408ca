package commands

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// NewOpenCmd creates the open command
func NewOpenCmd(app AppFunc) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "open [course-id]",
		Short: "Open the catalog or a course in the web app",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			target := webURL(a.Config.Web.URL, args)
			if printOnly {
				fmt.Fprintln(a.Out, target)
				return nil
			}

			fmt.Fprintf(a.ErrOut, "Opening %s...\n", target)
			if err := a.OpenURL(target); err != nil {
				return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, target)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the URL instead of opening it")

	return cmd
}

func webURL(base string, args []string) string {
	base = strings.TrimRight(base, "/")
	if len(args) == 0 {
		return base + "/courses"
	}
	return base + "/courses/" + url.PathEscape(args[0])
}
