package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/output"
	"github.com/coursehub-dev/coursehub/internal/cli/services"
	"github.com/coursehub-dev/coursehub/internal/models"
)

// NewCoursesCmd creates the courses command tree
func NewCoursesCmd(app AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "courses",
		Aliases: []string{"course"},
		Short:   "Browse, enroll in and manage courses",
	}

	cmd.AddCommand(
		newCoursesListCmd(app),
		newCoursesSearchCmd(app),
		newCoursesShowCmd(app),
		newCoursesCreateCmd(app),
		newCoursesUpdateCmd(app),
		newCoursesEnrollCmd(app),
		newCoursesPublishCmd(app),
		newCoursesStatsCmd(app),
	)

	return cmd
}

func newCoursesListCmd(app AppFunc) *cobra.Command {
	var params services.PageParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List published courses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			page, err := a.Courses.Published(cmd.Context(), params)
			if err != nil {
				return err
			}
			return renderCoursePage(a, page, "No published courses yet.")
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&params.Size, "size", services.DefaultPageSize, "Courses per page")
	cmd.Flags().StringVar(&params.SortBy, "sort-by", services.DefaultSortBy, "Sort field")
	cmd.Flags().StringVar(&params.SortDir, "sort-dir", services.DefaultSortDir, "Sort direction: asc or desc")

	return cmd
}

func newCoursesSearchCmd(app AppFunc) *cobra.Command {
	var (
		category, level    string
		minPrice, maxPrice float64
		page, size         int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search published courses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := services.SearchFilters{
				Category: category,
				Level:    models.CourseLevel(strings.ToUpper(level)),
			}
			if len(args) == 1 {
				filters.Query = args[0]
			}
			if cmd.Flags().Changed("min-price") {
				filters.MinPrice = &minPrice
			}
			if cmd.Flags().Changed("max-price") {
				filters.MaxPrice = &maxPrice
			}
			if cmd.Flags().Changed("page") {
				filters.Page = &page
			}
			if cmd.Flags().Changed("size") {
				filters.Size = &size
			}

			a := app()
			result, err := a.Courses.Search(cmd.Context(), filters)
			if err != nil {
				return err
			}
			return renderCoursePage(a, result, "No courses match.")
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringVar(&level, "level", "", "Level: beginner, intermediate, advanced or expert")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "Minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "Maximum price")
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&size, "size", services.DefaultPageSize, "Courses per page")

	return cmd
}

func newCoursesShowCmd(app AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <course-id>",
		Short: "Show a course with its lessons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			course, err := a.Courses.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderCourse(a, course)
		},
	}
}

func newCoursesCreateCmd(app AppFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create -f <file>",
		Short: "Create a course from a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			var course models.Course
			if err := readDocument(file, a.In, &course); err != nil {
				return err
			}

			created, err := a.Courses.Create(cmd.Context(), &course)
			if err != nil {
				return fmt.Errorf("failed to create course: %w", err)
			}
			fmt.Fprintf(a.ErrOut, "✓ Created course %s\n", created.ID)
			return renderCourse(a, created)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Course document (- for stdin)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newCoursesUpdateCmd(app AppFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <course-id> -f <file>",
		Short: "Replace a course's details from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			var course models.Course
			if err := readDocument(file, a.In, &course); err != nil {
				return err
			}

			updated, err := a.Courses.Update(cmd.Context(), args[0], &course)
			if err != nil {
				return fmt.Errorf("failed to update course: %w", err)
			}
			fmt.Fprintf(a.ErrOut, "✓ Updated course %s\n", updated.ID)
			return renderCourse(a, updated)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Course document (- for stdin)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newCoursesEnrollCmd(app AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			resp, err := a.Courses.Enroll(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to enroll: %w", err)
			}

			return a.Printer.Render(resp, func(w io.Writer) error {
				msg := resp.Message
				if msg == "" {
					msg = "Enrolled successfully"
				}
				_, err := fmt.Fprintf(w, "✓ %s\n", msg)
				return err
			})
		},
	}
}

func newCoursesPublishCmd(app AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <course-id>",
		Short: "Publish a draft course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			course, err := a.Courses.Publish(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to publish course: %w", err)
			}
			fmt.Fprintf(a.ErrOut, "✓ Published course %s\n", course.ID)
			return renderCourse(a, course)
		},
	}
}

func newCoursesStatsCmd(app AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			stats, err := a.Courses.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			return a.Printer.Render(stats, func(w io.Writer) error {
				return printMap(w, stats)
			})
		},
	}
}

func renderCoursePage(a *App, page *models.Page[models.Course], empty string) error {
	return a.Printer.Render(page, func(w io.Writer) error {
		if len(page.Content) == 0 {
			_, err := fmt.Fprintln(w, empty)
			return err
		}

		table := output.NewTable("ID", "TITLE", "CATEGORY", "LEVEL", "PRICE", "RATING", "STUDENTS")
		for _, c := range page.Content {
			table.AddRow(
				c.ID,
				output.Truncate(c.Title, 40),
				c.Category,
				strings.ToLower(string(c.Level)),
				c.PriceLabel(),
				ratingLabel(c.Rating),
				fmt.Sprintf("%d", c.EnrollmentCount),
			)
		}
		if err := table.Write(w); err != nil {
			return err
		}

		fmt.Fprintf(w, "\nPage %d of %d (%d courses)\n", page.Number+1, max(page.TotalPages, 1), page.TotalElements)
		if page.HasNext() {
			fmt.Fprintf(w, "Next page: --page %d\n", page.Number+1)
		}
		return nil
	})
}

func renderCourse(a *App, course *models.Course) error {
	return a.Printer.Render(course, func(w io.Writer) error {
		fields := [][2]string{
			{"ID", course.ID},
			{"Title", course.Title},
			{"Instructor", course.InstructorName},
			{"Category", course.Category},
			{"Level", strings.ToLower(string(course.Level))},
			{"Duration", course.Duration},
			{"Price", course.PriceLabel()},
			{"Rating", ratingLabel(course.Rating)},
			{"Students", fmt.Sprintf("%d", course.EnrollmentCount)},
			{"Status", strings.ToLower(string(course.Status))},
			{"Skills", strings.Join(course.Skills, ", ")},
		}
		if err := printFields(w, fields); err != nil {
			return err
		}

		if course.Description != "" {
			fmt.Fprintf(w, "\n%s\n", course.Description)
		}

		if len(course.Lessons) == 0 {
			return nil
		}
		fmt.Fprintln(w)
		table := output.NewTable("#", "LESSON", "TYPE", "DURATION")
		for i, l := range course.Lessons {
			order := l.Order
			if order == 0 {
				order = i + 1
			}
			table.AddRow(fmt.Sprintf("%d", order), output.Truncate(l.Title, 50), strings.ToLower(string(l.Type)), l.Duration)
		}
		return table.Write(w)
	})
}

func ratingLabel(r *float64) string {
	if r == nil || *r == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", *r)
}
