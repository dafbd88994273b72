package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/assist"
	"github.com/javiermolinar/horario/internal/llm"
)

func (a *App) suggestCmd() *cobra.Command {
	var (
		useLLM     bool
		apply      bool
		yes        bool
		modelFlag  string
		maxRetries int
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Propose placements for pending sessions",
		Long: `Propose a placement for every pending session of submitted courses.

By default a deterministic first-fit pass fills the earliest free slot of
each session, longest sessions first, in the smallest room that seats the
group. With --llm the configured model proposes placements; answers that
would be rejected are sent back with the errors until they check out or
the retries run out.

Suggestions are only printed unless --apply is given.

Interactive mode (--apply without --yes):
  - [a]ccept: Place the suggestions
  - [r]etry:  Ask again (--llm only)
  - [c]ancel: Exit without placing

Examples:
  horario suggest
  horario suggest --apply --yes
  horario suggest --llm --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tt, err := a.timetable(cmd.Context())
			if err != nil {
				return err
			}
			if maxRetries < 0 {
				maxRetries = a.config.LLM.MaxRetries
			}

			propose := func(ctx context.Context) (*assist.Result, error) {
				_, plan, err := a.eng.Snapshot(ctx, tt.ID)
				if err != nil {
					return nil, err
				}
				return assist.FirstFit(a.eng.Grid(), a.eng.Catalog(), tt, plan), nil
			}
			if useLLM {
				model := modelFlag
				if model == "" {
					model = a.config.LLM.Model
				}
				client, err := llm.NewClient(a.config.LLM.Provider, model, a.config.LLM.BaseURL)
				if err != nil {
					return fmt.Errorf("creating LLM client: %w", err)
				}
				assistant := assist.New(a.eng, client,
					assist.WithCompactPrompt(llm.IsLocal(a.config.LLM.Provider)),
					assist.WithEventLog(a.log),
				)
				propose = func(ctx context.Context) (*assist.Result, error) {
					fmt.Fprintln(cmd.OutOrStdout(), "Asking the model...")
					result, err := assistant.SuggestWithRetry(ctx, tt.ID, maxRetries)
					if errors.Is(err, assist.ErrMaxRetriesExceeded) {
						return result, nil
					}
					return result, err
				}
			}

			s := suggestSession{
				app:     a,
				w:       cmd.OutOrStdout(),
				reader:  bufio.NewReader(os.Stdin),
				propose: propose,
				retry:   useLLM,
				confirm: !yes,
			}
			return s.run(cmd.Context(), tt.ID, apply)
		},
	}

	cmd.Flags().BoolVar(&useLLM, "llm", false, "Ask the configured LLM instead of first-fit")
	cmd.Flags().BoolVar(&apply, "apply", false, "Place the suggestions")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without asking")
	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "LLM model (default from config)")
	cmd.Flags().IntVar(&maxRetries, "retries", -1, "LLM retries on invalid answers (default from config)")
	return cmd
}

// suggestSession drives the propose / review / apply loop.
type suggestSession struct {
	app     *App
	w       io.Writer
	reader  *bufio.Reader
	propose func(context.Context) (*assist.Result, error)
	retry   bool
	confirm bool
}

func (s suggestSession) run(ctx context.Context, timetableID int64, apply bool) error {
	result, err := s.propose(ctx)
	if err != nil {
		return fmt.Errorf("suggesting: %w", err)
	}

	for {
		printSuggestions(s.w, result)
		if len(result.Suggestions) == 0 {
			return nil
		}
		if !apply {
			fmt.Fprintln(s.w, formatMuted("\n(Dry run - use --apply to place)"))
			return nil
		}
		if !s.confirm {
			return s.apply(ctx, timetableID, result)
		}

		prompt := "\n[a]ccept / [c]ancel: "
		if s.retry {
			prompt = "\n[a]ccept / [r]etry / [c]ancel: "
		}
		fmt.Fprint(s.w, prompt)
		choice, err := s.reader.ReadString('\n')
		if err != nil && choice == "" {
			return fmt.Errorf("reading input: %w", err)
		}

		switch strings.TrimSpace(strings.ToLower(choice)) {
		case "a", "accept":
			return s.apply(ctx, timetableID, result)
		case "r", "retry":
			if !s.retry {
				fmt.Fprintln(s.w, "First-fit is deterministic, retry would give the same answer.")
				continue
			}
			result, err = s.propose(ctx)
			if err != nil {
				return fmt.Errorf("suggesting: %w", err)
			}
		case "c", "cancel", "q", "quit":
			fmt.Fprintln(s.w, "Cancelled.")
			return nil
		default:
			fmt.Fprintln(s.w, "Invalid choice.")
		}
	}
}

// apply places the suggestions that passed the dry run.
func (s suggestSession) apply(ctx context.Context, timetableID int64, result *assist.Result) error {
	applied, err := assist.Apply(ctx, s.app.eng, timetableID, result.Suggestions)
	if applied != nil {
		fmt.Fprintf(s.w, "\n%s %d of %d\n", formatStats("Placed"), len(applied.Placed), len(result.Suggestions))
		for _, r := range applied.Rejected {
			fmt.Fprintf(s.w, "  %s %s: %v\n", formatError("rejected"), r.Suggestion, r.Err)
		}
	}
	return err
}

func printSuggestions(w io.Writer, r *assist.Result) {
	if len(r.Suggestions) == 0 && len(r.Issues) == 0 {
		fmt.Fprintln(w, formatStats("Nothing to place."))
		return
	}

	header := fmt.Sprintf("Suggested placements (%d)", len(r.Suggestions))
	if r.Attempts > 1 {
		header += fmt.Sprintf(" after %d attempts", r.Attempts)
	}
	fmt.Fprintln(w, formatHeader(header))
	for _, s := range r.Suggestions {
		fmt.Fprintf(w, "  %s  %-8s g%d  %s %s-%s  room %s\n",
			shortID(s.SessionID), s.CourseID, s.Group, s.Day.Short(), s.Start, s.End, s.RoomID)
	}

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  %s %s\n", formatPending("note:"), warn)
	}
	if len(r.Issues) > 0 {
		fmt.Fprintln(w, formatError(fmt.Sprintf("\nUnresolved (%d)", len(r.Issues))))
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "  %s\n", issue)
		}
	}
}
