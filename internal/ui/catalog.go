package ui

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/period"
)

func (a *App) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the course catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [file]",
		Short: "Validate the catalog and show what the period offers",
		Long: `Load the catalog YAML, validate it, and list the courses offered in
the selected period. The file defaults to [catalog] path from the config.

Example:
  horario catalog check -p 2025-II`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.config.Catalog.Path
			if len(args) == 1 {
				path = args[0]
			}
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			p, err := a.selectedPeriod()
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), c, p)
			return nil
		},
	})
	return cmd
}

func printCatalog(w io.Writer, c *catalog.Catalog, p period.Period) {
	fmt.Fprintf(w, "%s %d courses, %d professors, %d rooms\n",
		formatStats("Catalog OK:"), len(c.Courses), len(c.Professors), len(c.RoomList))

	courses := c.CoursesForPeriod(p)
	fmt.Fprintln(w)
	fmt.Fprintln(w, formatHeader(fmt.Sprintf("Offered in %s (cycles %v)", p, p.ActiveCycles())))
	if len(courses) == 0 {
		fmt.Fprintln(w, formatMuted("  No courses."))
		return
	}
	hours := 0
	for _, course := range courses {
		kind := formatPlaced(string(course.Kind))
		if !course.IsMandatory() {
			kind = formatMuted(string(course.Kind))
		}
		fmt.Fprintf(w, "  c%-2d %-8s %-30s %2dh  %s\n", course.Cycle, course.ID, truncate(course.Name, 30), course.WeeklyHours, kind)
		hours += course.WeeklyHours
	}
	fmt.Fprintf(w, "\nTotal: %d courses, %s per group\n", len(courses), FormatHours(hours))
}
