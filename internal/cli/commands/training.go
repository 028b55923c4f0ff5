package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

// NewTrainingCmd creates the training command group, open to every role
func NewTrainingCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "training",
		Short: "Sales training courses",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Require(session.Roles)
		},
	}

	cmd.AddCommand(newCoursesCmd(a))
	cmd.AddCommand(newCompleteLessonCmd(a))

	return cmd
}

func newCoursesCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List courses and your progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := load[[]client.Course](cmd.Context(), a, client.PathCourses)
			if err != nil {
				return err
			}

			return a.render(*courses, func(w io.Writer) {
				if len(*courses) == 0 {
					fmt.Fprintln(w, "No courses available yet.")
					return
				}
				for _, course := range *courses {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\n", course.Title, orDash(course.Level), orDash(course.Focus), course.Progress)
					for _, lesson := range course.Lessons {
						fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", lesson.ID, lesson.Title, orDash(lesson.Duration), lessonMark(lesson.Status))
					}
				}
			})
		},
	}
}

func lessonMark(status string) string {
	switch status {
	case "completed":
		return "done"
	case "in-progress":
		return "in progress"
	case "locked":
		return "locked"
	default:
		return orDash(status)
	}
}

func newCompleteLessonCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <lesson-id>",
		Short: "Mark a lesson as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("lesson", args[0])
			if err != nil {
				return err
			}
			if err := a.api.CompleteLesson(cmd.Context(), id); err != nil {
				return err
			}
			a.printf("Lesson %d completed\n", id)
			return nil
		},
	}
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}
