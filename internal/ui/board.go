package ui

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/tui"
)

func (a *App) boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive timetable board",
		Long: `Open the weekly grid of the selected period.

Move with the arrow keys or hjkl, press enter on a free cell to pick a
pending session and a room, x to remove the placement under the cursor,
v to validate, and y to copy the last report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBoard(cmd.Context())
		},
	}
}

// runBoard opens the board on the selected period's timetable.
func (a *App) runBoard(ctx context.Context) error {
	if !isTerminal() {
		return errors.New("the board needs a terminal, use the subcommands instead")
	}
	tt, err := a.timetable(ctx)
	if err != nil {
		return err
	}
	return tui.Run(a.eng, tt.ID,
		tui.WithTheme(a.config.UI.Theme),
		tui.WithReports(a.reports),
	)
}
