package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/summary"
	"github.com/javiermolinar/horario/internal/tui/view"
)

func (a *App) statusCmd() *cobra.Command {
	var insight bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize hours and coverage of the timetable",
		Long: `Show per-day load, placed hours per course, and how many in-scope
courses of each active cycle are on the grid.

With --insight the configured LLM reviews the timetable and points out
gaps and uneven days.

Examples:
  horario status
  horario status -p 2025-II --insight`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}

			s, err := summary.BuildSummary(cmd.Context(), a.eng, summary.BuildOptions{
				TimetableID:    tt.ID,
				IncludeInsight: insight,
				Provider:       a.config.LLM.Provider,
				Model:          a.config.LLM.Model,
				BaseURL:        a.config.LLM.BaseURL,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			PrintSummary(w, s, len(view.SlotHours(a.eng.Grid())))
			if s.Insight != "" {
				fmt.Fprintln(w)
				fmt.Fprintln(w, formatHeader("Insight"))
				PrintInsightWrapped(w, s.Insight, termWidth())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&insight, "insight", false, "Ask the LLM for a review")
	return cmd
}
