package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/output"
	"github.com/coursehub-dev/coursehub/internal/models"
)

// NewQuizzesCmd creates the quizzes command tree
func NewQuizzesCmd(app AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quizzes",
		Aliases: []string{"quiz"},
		Short:   "View, author and take course quizzes",
	}

	cmd.AddCommand(
		newQuizzesShowCmd(app),
		newQuizzesListCmd(app),
		newQuizzesCreateCmd(app),
		newQuizzesUpdateCmd(app),
		newQuizzesSubmitCmd(app),
	)

	return cmd
}

func newQuizzesShowCmd(app AppFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <quiz-id>",
		Short: "Show a quiz and its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			quiz, err := a.Quizzes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderQuiz(a, quiz)
		},
	}
}

func newQuizzesListCmd(app AppFunc) *cobra.Command {
	var courseID string

	cmd := &cobra.Command{
		Use:     "ls --course <course-id>",
		Aliases: []string{"list"},
		Short:   "List the quizzes of a course",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			quizzes, err := a.Quizzes.ListByCourse(cmd.Context(), courseID)
			if err != nil {
				return err
			}

			return a.Printer.Render(quizzes, func(w io.Writer) error {
				if len(quizzes) == 0 {
					_, err := fmt.Fprintln(w, "No quizzes found for this course.")
					return err
				}
				table := output.NewTable("ID", "TITLE", "QUESTIONS", "PASSING", "TIME LIMIT")
				for _, q := range quizzes {
					table.AddRow(
						q.ID,
						output.Truncate(q.Title, 40),
						fmt.Sprintf("%d", len(q.Questions)),
						percentLabel(q.PassingScore),
						minutesLabel(q.TimeLimitMinutes),
					)
				}
				return table.Write(w)
			})
		},
	}

	cmd.Flags().StringVar(&courseID, "course", "", "Course ID")
	cmd.MarkFlagRequired("course")

	return cmd
}

func newQuizzesCreateCmd(app AppFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create -f <file>",
		Short: "Create a quiz from a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			var quiz models.Quiz
			if err := readDocument(file, a.In, &quiz); err != nil {
				return err
			}

			created, err := a.Quizzes.Create(cmd.Context(), &quiz)
			if err != nil {
				return fmt.Errorf("failed to create quiz: %w", err)
			}
			fmt.Fprintf(a.ErrOut, "✓ Created quiz %s\n", created.ID)
			return renderQuiz(a, created)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Quiz document (- for stdin)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newQuizzesUpdateCmd(app AppFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <quiz-id> -f <file>",
		Short: "Replace a quiz from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			var quiz models.Quiz
			if err := readDocument(file, a.In, &quiz); err != nil {
				return err
			}

			updated, err := a.Quizzes.Update(cmd.Context(), args[0], &quiz)
			if err != nil {
				return fmt.Errorf("failed to update quiz: %w", err)
			}
			fmt.Fprintf(a.ErrOut, "✓ Updated quiz %s\n", updated.ID)
			return renderQuiz(a, updated)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Quiz document (- for stdin)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newQuizzesSubmitCmd(app AppFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit <quiz-id> -f <answers-file>",
		Short: "Submit answers for grading",
		Long: `Submits answers keyed by question ID, for example:

  {"q1": 2, "q2": true, "q3": "goroutine"}

A document of the form {"answers": {...}} is accepted too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireSession(); err != nil {
				return err
			}

			var doc map[string]any
			if err := readDocument(file, a.In, &doc); err != nil {
				return err
			}

			result, err := a.Quizzes.Submit(cmd.Context(), args[0], answersOf(doc))
			if err != nil {
				return fmt.Errorf("failed to submit quiz: %w", err)
			}

			return a.Printer.Render(result, func(w io.Writer) error {
				if passed, ok := result["passed"].(bool); ok {
					if passed {
						fmt.Fprintln(w, "✓ Passed")
					} else {
						fmt.Fprintln(w, "✗ Not passed")
					}
				}
				return printMap(w, result)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Answers document (- for stdin)")
	cmd.MarkFlagRequired("file")

	return cmd
}

// answersOf unwraps {"answers": {...}} and returns any other document as-is
func answersOf(doc map[string]any) models.QuizAnswers {
	if len(doc) == 1 {
		if inner, ok := doc["answers"].(map[string]any); ok {
			return models.QuizAnswers(inner)
		}
	}
	return models.QuizAnswers(doc)
}

func renderQuiz(a *App, quiz *models.Quiz) error {
	return a.Printer.Render(quiz, func(w io.Writer) error {
		fields := [][2]string{
			{"ID", quiz.ID},
			{"Title", quiz.Title},
			{"Course", quiz.CourseID},
			{"Passing score", percentLabel(quiz.PassingScore)},
			{"Time limit", minutesLabel(quiz.TimeLimitMinutes)},
		}
		if err := printFields(w, fields); err != nil {
			return err
		}
		if quiz.Description != "" {
			fmt.Fprintf(w, "\n%s\n", quiz.Description)
		}

		for i, q := range quiz.Questions {
			fmt.Fprintf(w, "\n%d. %s", i+1, q.Question)
			if q.ID != "" {
				fmt.Fprintf(w, "  [%s]", q.ID)
			}
			fmt.Fprintln(w)
			switch q.Type {
			case models.QuestionTrueFalse:
				fmt.Fprintln(w, "   true / false")
			case models.QuestionMultipleChoice:
				for j, opt := range q.Options {
					fmt.Fprintf(w, "   %d) %s\n", j, opt)
				}
			default:
				fmt.Fprintf(w, "   (%s answer)\n", strings.ToLower(string(q.Type)))
			}
		}
		return nil
	})
}

func percentLabel(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *p)
}

func minutesLabel(m *int) string {
	if m == nil || *m == 0 {
		return "none"
	}
	return fmt.Sprintf("%d min", *m)
}
