package ui

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/export"
)

func (a *App) timetableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timetable",
		Aliases: []string{"tt"},
		Short:   "Create, inspect, and publish timetables",
	}
	cmd.AddCommand(
		a.timetableCreateCmd(),
		a.timetableListCmd(),
		a.timetableDeleteCmd(),
		a.timetableShowCmd(),
		a.timetableValidateCmd(),
		a.timetablePublishCmd(),
		a.timetableExportCmd(),
	)
	return cmd
}

func (a *App) timetableCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [period]",
		Short: "Create a draft timetable",
		Long: `Create an empty draft timetable for a period.

Examples:
  horario timetable create 2025-I
  horario timetable create -p 2025-II`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.period = args[0]
			}
			p, err := a.selectedPeriod()
			if err != nil {
				return err
			}
			if err := a.ensureEngine(); err != nil {
				return err
			}
			tt, err := a.eng.Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created draft timetable %s (id %d)\n", tt.Period, tt.ID)
			return nil
		},
	}
}

func (a *App) timetableListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List timetables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureEngine(); err != nil {
				return err
			}
			tts, err := a.eng.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(tts) == 0 {
				fmt.Fprintln(w, formatMuted("No timetables."))
				return nil
			}
			for _, tt := range tts {
				status := formatPending(string(tt.Status))
				if !tt.IsDraft() {
					status = formatStats(string(tt.Status))
				}
				fmt.Fprintf(w, "  %-4d %-8s %-20s %3d placements  %s\n",
					tt.ID, tt.Period, status, len(tt.Placements), formatMuted(tt.CreatedAt.Format("2006-01-02")))
			}
			return nil
		},
	}
}

func (a *App) timetableDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the timetable of the selected period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			if !force && !tt.IsDraft() {
				return fmt.Errorf("timetable %s is %s, use --force to delete it", tt.Period, tt.Status)
			}
			if err := a.eng.Delete(cmd.Context(), tt.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted timetable %s\n", tt.Period)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Delete even if confirmed")
	return cmd
}

func (a *App) timetableShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the weekly grid and placements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, formatHeader(fmt.Sprintf("Timetable %s (%s)", tt.Period, tt.Status)))
			fmt.Fprintln(w, RenderGrid(a.eng.Grid(), tt))
			PrintPlacements(w, tt.Placements)
			return nil
		},
	}
}

func (a *App) timetableValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check conflicts and coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.eng.Validate(cmd.Context(), tt.ID)
			if err != nil {
				return err
			}
			PrintReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func (a *App) timetablePublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Confirm the timetable if validation is clean",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			published, err := a.eng.Publish(cmd.Context(), tt.ID)
			var blocked *engine.PublishBlockedError
			if errors.As(err, &blocked) {
				PrintReport(w, blocked.Report)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s timetable %s\n", formatStats("Published"), published.Period)
			return nil
		},
	}
}

func (a *App) timetableExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the timetable to an XLSX workbook",
		Long: `Write the weekly grid and the placement list to an Excel workbook.
The default file name is horario-<period>.xlsx.

Examples:
  horario timetable export -p 2025-I
  horario timetable export -p 2025-I grid.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			path := fmt.Sprintf("horario-%s.xlsx", tt.Period)
			if len(args) == 1 {
				path = args[0]
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if err := export.WriteXLSX(f, a.eng.Grid(), tt, a.eng.Catalog()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d placements to %s\n", len(tt.Placements), path)
			return nil
		},
	}
}

// parseID parses a placement ID argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

