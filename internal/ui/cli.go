package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/config"
	"github.com/javiermolinar/horario/internal/db"
	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/eventlog"
	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/timetable"
	"github.com/javiermolinar/horario/internal/tui/commands"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config  *config.Config
	root    *cobra.Command
	debug   bool // Write engine events to eventlog.DefaultPath
	noColor bool
	period  string

	repo    *db.SQLite
	eng     *engine.Engine
	log     *eventlog.Logger
	reports commands.Reports
}

// NewApp creates a new CLI application with the given config. Storage and
// catalog are opened on first use.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg}

	a.root = &cobra.Command{
		Use:   "horario",
		Short: "University course timetabling",
		Long: `Horario builds the weekly timetable of an academic period.

Plan each course into groups and sessions, place the sessions on the
Monday-Saturday grid, validate, and publish. Running horario without a
subcommand opens the board for the selected period.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor || a.config.UI.NoColor {
				DisableColor()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBoard(cmd.Context())
		},
	}

	flags := a.root.PersistentFlags()
	flags.BoolVar(&a.debug, "debug", false, "Write engine events to "+eventlog.DefaultPath)
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.StringVarP(&a.period, "period", "p", "", "Academic period, e.g. 2025-I (default: current)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.catalogCmd())
	a.root.AddCommand(a.timetableCmd())
	a.root.AddCommand(a.planCmd())
	a.root.AddCommand(a.pendingCmd())
	a.root.AddCommand(a.placeCmd())
	a.root.AddCommand(a.removeCmd())
	a.root.AddCommand(a.suggestCmd())
	a.root.AddCommand(a.statusCmd())
	a.root.AddCommand(a.boardCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "horario %s (commit: %s)\n", Version, Commit)
		},
	}
}

// ensureEngine opens storage, loads the catalog, and builds the engine.
func (a *App) ensureEngine() error {
	if a.eng != nil {
		return nil
	}

	src, err := catalog.Load(a.config.Catalog.Path)
	if err != nil {
		return err
	}
	g, err := a.config.BuildGrid()
	if err != nil {
		return err
	}

	dbPath := a.config.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	repo, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}

	if a.debug {
		a.log, err = eventlog.Open(eventlog.DefaultPath)
		if err != nil {
			_ = repo.Close()
			return err
		}
	}

	a.repo = repo
	a.reports = commands.NewReports()
	a.eng = engine.New(repo, src, g,
		engine.WithEventLog(a.log),
		engine.WithReportHandler(a.reports.Handler),
	)
	return nil
}

// selectedPeriod resolves the --period flag.
func (a *App) selectedPeriod() (period.Period, error) {
	return period.Parse(a.period)
}

// timetable returns the timetable of the selected period.
func (a *App) timetable(ctx context.Context) (*timetable.Timetable, error) {
	if err := a.ensureEngine(); err != nil {
		return nil, err
	}
	p, err := a.selectedPeriod()
	if err != nil {
		return nil, err
	}
	tt, err := a.eng.Find(ctx, p)
	if errors.Is(err, timetable.ErrNotFound) {
		return nil, fmt.Errorf("no timetable for %s, run: horario timetable create -p %s", p, p)
	}
	return tt, err
}

// Close waits for background validation and releases storage.
func (a *App) Close() error {
	if a.eng != nil {
		a.eng.Wait()
	}
	var errs []error
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	}
	errs = append(errs, a.log.Close())
	return errors.Join(errs...)
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}
