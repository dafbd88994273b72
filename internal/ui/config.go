package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/horario/internal/config"
	"github.com/javiermolinar/horario/internal/llm"
	"github.com/javiermolinar/horario/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  horario config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(cmd.OutOrStdout(), bufio.NewReader(os.Stdin))
		},
	}
}

func runConfigInteractive(w io.Writer, reader *bufio.Reader) error {
	configPath := config.DefaultConfigPath()
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	printConfig(w, cfg)

	if !promptYesNo(w, reader, "\nWould you like to edit the configuration?") {
		return nil
	}

	editConfig(w, reader, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func editConfig(w io.Writer, reader *bufio.Reader, cfg *config.Config) {
	cfg.Grid.Days = promptSlice(w, reader, "Teaching days (comma-separated)", cfg.Grid.Days)
	cfg.Grid.DayStart = promptValue(w, reader, "Day start", cfg.Grid.DayStart)
	cfg.Grid.DayEnd = promptValue(w, reader, "Day end", cfg.Grid.DayEnd)
	cfg.Catalog.Path = promptValue(w, reader, "Catalog file", cfg.Catalog.Path)
	cfg.Storage.DBPath = promptValue(w, reader, "Database path", cfg.Storage.DBPath)
	cfg.LLM.Provider = promptValue(w, reader, "LLM provider (copilot, gemini, lmstudio, ollama)", cfg.LLM.Provider)
	cfg.LLM.Model = promptValue(w, reader, "LLM model", cfg.LLM.Model)
	if llm.IsLocal(cfg.LLM.Provider) {
		cfg.LLM.BaseURL = promptValue(w, reader, "LLM base URL", cfg.LLM.BaseURL)
	}
	cfg.LLM.MaxRetries = promptInt(w, reader, "LLM retries", cfg.LLM.MaxRetries)
	cfg.UI.Theme = promptTheme(w, reader, cfg.UI.Theme)
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[grid]")
	fmt.Fprintf(w, "  days         = %s\n", strings.Join(cfg.Grid.Days, ", "))
	fmt.Fprintf(w, "  day_start    = %s\n", cfg.Grid.DayStart)
	fmt.Fprintf(w, "  day_end      = %s\n", cfg.Grid.DayEnd)
	fmt.Fprintln(w, "\n[catalog]")
	fmt.Fprintf(w, "  path         = %s\n", cfg.Catalog.Path)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path      = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[llm]")
	fmt.Fprintf(w, "  provider     = %s\n", cfg.LLM.Provider)
	fmt.Fprintf(w, "  model        = %s\n", cfg.LLM.Model)
	if llm.IsLocal(cfg.LLM.Provider) {
		fmt.Fprintf(w, "  base_url     = %s\n", cfg.LLM.BaseURL)
	}
	fmt.Fprintf(w, "  max_retries  = %d\n", cfg.LLM.MaxRetries)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  no_color     = %t\n", cfg.UI.NoColor)
	fmt.Fprintf(w, "  theme        = %s\n", cfg.UI.Theme)
}

func promptYesNo(w io.Writer, reader *bufio.Reader, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(w io.Writer, reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Fprintf(w, "  %s: ", label)
	} else {
		fmt.Fprintf(w, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(w io.Writer, reader *bufio.Reader, label string, current int) int {
	for {
		value := promptValue(w, reader, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil && n >= 0 {
			return n
		}
		fmt.Fprintf(w, "  Invalid number %q\n", value)
	}
}

func promptSlice(w io.Writer, reader *bufio.Reader, label string, current []string) []string {
	fmt.Fprintf(w, "  %s [%s]: ", label, strings.Join(current, ", "))
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func promptTheme(w io.Writer, reader *bufio.Reader, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(w, reader, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(w, "  Invalid theme %q. Available: %s\n", value, options)
		current = theme.DefaultName
	}
}
