package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/timetable"
)

func (a *App) pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List courses and sessions still waiting for the grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			courses, err := a.eng.PendingCourses(cmd.Context(), tt.ID)
			if err != nil {
				return err
			}
			plan, err := a.eng.Plan(cmd.Context(), tt.ID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(courses) == 0 {
				fmt.Fprintln(w, formatStats("Nothing pending."))
				return nil
			}
			for _, c := range courses {
				cp, planned := plan.Course(c.ID)
				switch {
				case !planned:
					fmt.Fprintf(w, "%-8s %-30s %s\n", c.ID, truncate(c.Name, 30), formatMuted("not planned"))
				case !cp.Submitted:
					fmt.Fprintf(w, "%-8s %-30s %s\n", c.ID, truncate(c.Name, 30), formatPending("plan not submitted"))
				default:
					fmt.Fprintf(w, "%-8s %s\n", c.ID, c.Name)
					for _, s := range plan.Pending(c.ID) {
						g, _ := cp.Group(s.Group)
						fmt.Fprintf(w, "  %s  g%d  %s  %s  %d students\n",
							shortID(s.ID), s.Group, FormatHours(s.Duration), g.ProfessorID, g.StudentCount)
					}
				}
			}
			return nil
		},
	}
}

func (a *App) placeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "place <session> <day> <start> <room>",
		Short: "Place a pending session on the grid",
		Long: `Commit a pending session to a day, start hour, and room. The session
occupies one cell per hour of its duration. The placement is rejected if
the cells are taken, the professor or room is busy, or the block runs
past the end of the day.

Example:
  horario place 3f2a mon 09:00 R1`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			day, err := grid.ParseDay(args[1])
			if err != nil {
				return err
			}
			start := args[2]
			if h, err := grid.ParseHour(start); err == nil {
				start = h.String()
			}

			plan, err := a.eng.Plan(cmd.Context(), tt.ID)
			if err != nil {
				return err
			}
			sessionID, err := resolveSession(plan, "", args[0])
			if err != nil {
				return err
			}

			p, err := a.eng.Place(cmd.Context(), engine.PlaceRequest{
				TimetableID: tt.ID,
				SessionID:   sessionID,
				Day:         day,
				Start:       start,
				RoomID:      args[3],
			})
			if err != nil {
				return describeRejection(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s\n", formatStats("Placed"), p.ID, p)
			return nil
		},
	}
}

func (a *App) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <placement-id>",
		Short: "Remove a placement; its session becomes pending again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.eng.Remove(cmd.Context(), tt.ID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d %s\n", p.ID, p)
			return nil
		},
	}
}

// describeRejection prefixes a conflict with its kind so the CLI output
// matches the validate report.
func describeRejection(err error) error {
	var conflict *timetable.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Errorf("rejected [%s]: %w", conflict.Kind, err)
	}
	if engine.IsRejection(err) {
		return fmt.Errorf("rejected: %w", err)
	}
	return err
}
