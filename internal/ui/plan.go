package ui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
)

// shortIDLen is how much of a session ID is printed.
const shortIDLen = 8

func (a *App) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Break courses into groups and sessions",
		Long: `Plan how each course is taught before placing it.

A course gets 1 to 3 groups. Each group starts with one session covering
all weekly hours; split, merge, add, and remove reshape the sessions. A
course is placeable once submitted, which requires every group to have a
professor and sessions adding up to the weekly hours.

Session arguments accept any unique prefix of the ID shown by plan show.

Example:
  horario plan course ALG --groups 2
  horario plan assign ALG 1 P07 35
  horario plan split ALG 3f2a 2 2
  horario plan submit ALG`,
	}
	cmd.AddCommand(
		a.planCourseCmd(),
		a.planDropCmd(),
		a.planAssignCmd(),
		a.planSplitCmd(),
		a.planMergeCmd(),
		a.planAddCmd(),
		a.planRemoveCmd(),
		a.planSubmitCmd(),
		a.planShowCmd(),
	)
	return cmd
}

// updatePlan edits the plan of the selected timetable and prints the
// affected course.
func (a *App) updatePlan(cmd *cobra.Command, courseID string, fn func(*planner.Plan) error) error {
	tt, err := a.timetable(cmd.Context())
	if err != nil {
		return err
	}
	plan, err := a.eng.UpdatePlan(cmd.Context(), tt.ID, fn)
	if err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), plan, a.eng.Catalog(), courseID)
	return nil
}

func (a *App) planCourseCmd() *cobra.Command {
	var groups int
	cmd := &cobra.Command{
		Use:   "course <course>",
		Short: "Plan a course with a number of groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.eng.PlanCourse(cmd.Context(), tt.ID, args[0], groups); err != nil {
				return err
			}
			return a.printPlanFor(cmd.Context(), cmd.OutOrStdout(), tt.ID, args[0])
		},
	}
	cmd.Flags().IntVarP(&groups, "groups", "g", 1, "Number of parallel groups (1-3)")
	return cmd
}

func (a *App) planDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <course>",
		Short: "Remove a course plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			_, err = a.eng.UpdatePlan(cmd.Context(), tt.ID, func(p *planner.Plan) error {
				return p.DropCourse(args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped plan for %s\n", args[0])
			return nil
		},
	}
}

func (a *App) planAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <course> <group> <professor> <students>",
		Short: "Set the professor and student count of a group",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := parsePositive(args[1], "group")
			if err != nil {
				return err
			}
			students, err := parsePositive(args[3], "student count")
			if err != nil {
				return err
			}
			if err := a.ensureEngine(); err != nil {
				return err
			}
			if _, ok := a.eng.Catalog().Professor(args[2]); !ok {
				return fmt.Errorf("professor %s: %w", args[2], timetable.ErrNotFound)
			}
			return a.updatePlan(cmd, args[0], func(p *planner.Plan) error {
				return p.AssignGroup(args[0], group, args[2], students)
			})
		},
	}
}

func (a *App) planSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <course> <session> <hours>...",
		Short: "Split a session into shorter ones",
		Long: `Replace a pending session with sessions of the given durations. The
durations must add up to the original session.

Example:
  horario plan split ALG 3f2a 2 2`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			durations, err := parseHours(args[2:])
			if err != nil {
				return err
			}
			return a.updatePlan(cmd, args[0], func(p *planner.Plan) error {
				id, err := resolveSession(p, args[0], args[1])
				if err != nil {
					return err
				}
				_, err = p.SplitSession(args[0], id, durations...)
				return err
			})
		},
	}
}

func (a *App) planMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <course> <session> <session>...",
		Short: "Merge pending sessions of one group",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updatePlan(cmd, args[0], func(p *planner.Plan) error {
				ids := make([]string, 0, len(args)-1)
				for _, ref := range args[1:] {
					id, err := resolveSession(p, args[0], ref)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				_, err := p.MergeSessions(args[0], ids...)
				return err
			})
		},
	}
}

func (a *App) planAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <course> <group> <hours>",
		Short: "Add a session to a group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := parsePositive(args[1], "group")
			if err != nil {
				return err
			}
			hours, err := parsePositive(args[2], "hours")
			if err != nil {
				return err
			}
			return a.updatePlan(cmd, args[0], func(p *planner.Plan) error {
				_, err := p.AddSession(args[0], group, hours)
				return err
			})
		},
	}
}

func (a *App) planRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <course> <session>",
		Short: "Remove a pending session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updatePlan(cmd, args[0], func(p *planner.Plan) error {
				id, err := resolveSession(p, args[0], args[1])
				if err != nil {
					return err
				}
				return p.RemoveSession(args[0], id)
			})
		},
	}
}

func (a *App) planSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <course>",
		Short: "Check the hours of every group and make the course placeable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updatePlan(cmd, args[0], func(p *planner.Plan) error {
				return p.Submit(args[0])
			})
		},
	}
}

func (a *App) planShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [course]",
		Short: "Show course plans",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			courseID := ""
			if len(args) == 1 {
				courseID = args[0]
			}
			return a.printPlanFor(cmd.Context(), cmd.OutOrStdout(), tt.ID, courseID)
		},
	}
}

func (a *App) printPlanFor(ctx context.Context, w io.Writer, timetableID int64, courseID string) error {
	plan, err := a.eng.Plan(ctx, timetableID)
	if err != nil {
		return err
	}
	printPlan(w, plan, a.eng.Catalog(), courseID)
	return nil
}

// printPlan prints the group/session tree of every planned course, or of
// courseID alone when it is set.
func printPlan(w io.Writer, plan *planner.Plan, src catalog.Source, courseID string) {
	ids := plan.CourseIDs()
	if courseID != "" {
		ids = []string{courseID}
	}
	if len(plan.Courses) == 0 {
		fmt.Fprintln(w, formatMuted("No course plans."))
		return
	}

	for _, id := range ids {
		cp, ok := plan.Course(id)
		if !ok {
			fmt.Fprintf(w, "%s %s\n", id, formatMuted("(not planned)"))
			continue
		}
		name := ""
		if c, ok := src.Course(id); ok {
			name = c.Name
		}
		state := formatPending("draft")
		if cp.Submitted {
			state = formatStats("submitted")
		}
		fmt.Fprintf(w, "%s %s  %s/week  %s\n", formatHeader(id), name, FormatHours(cp.WeeklyHours), state)

		for _, g := range cp.Groups {
			prof := g.ProfessorID
			if prof == "" {
				prof = formatError("no professor")
			}
			hours := fmt.Sprintf("%d/%dh", g.PlannedHours(), cp.WeeklyHours)
			if g.PlannedHours() != cp.WeeklyHours {
				hours = formatError(hours)
			}
			fmt.Fprintf(w, "  group %d  %s  %d students  %s\n", g.ID, prof, g.StudentCount, hours)
			for _, s := range g.Sessions {
				mark := formatPending("pending")
				if s.Placed {
					mark = formatPlaced("placed")
				}
				fmt.Fprintf(w, "    %s  %s  %s\n", shortID(s.ID), FormatHours(s.Duration), mark)
			}
		}
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// resolveSession expands a session reference to a full ID. The reference
// may be the full ID or a unique prefix. courseID may be empty to search
// every course.
func resolveSession(plan *planner.Plan, courseID, ref string) (string, error) {
	var matches []string
	for _, s := range plan.PendingSessions() {
		if courseID != "" && s.CourseID != courseID {
			continue
		}
		if s.ID == ref {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("session %s: %w", ref, planner.ErrSessionNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func parsePositive(s, what string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return n, nil
}

func parseHours(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := parsePositive(a, "hours")
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
