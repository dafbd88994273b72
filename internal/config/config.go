// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/horario/internal/grid"
)

// Earliest and latest hours any grid may use.
const (
	EarliestHour = "07:00"
	LatestHour   = "23:00"
)

// Config holds the application configuration.
type Config struct {
	Grid    GridConfig    `toml:"grid"`
	Catalog CatalogConfig `toml:"catalog"`
	Storage StorageConfig `toml:"storage"`
	LLM     LLMConfig     `toml:"llm"`
	UI      UIConfig      `toml:"ui"`
}

// GridConfig holds the teaching days and daily hour range.
type GridConfig struct {
	Days     []string `toml:"days"`      // e.g., ["monday", "tuesday", ...]
	DayStart string   `toml:"day_start"` // e.g., "07:00"
	DayEnd   string   `toml:"day_end"`   // e.g., "23:00"
}

// CatalogConfig points at the reference data file.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider   string `toml:"provider"` // "copilot", "gemini", "ollama", "lmstudio"
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	MaxRetries int    `toml:"max_retries"`
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	NoColor bool   `toml:"no_color"`
	Theme   string `toml:"theme"` // "mocha", "latte"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Days:     []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
			DayStart: EarliestHour,
			DayEnd:   LatestHour,
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(configDir(), "catalog.yaml"),
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		LLM: LLMConfig{
			Provider:   "copilot",
			Model:      "gpt-4o",
			BaseURL:    "http://localhost:11434",
			MaxRetries: 2,
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "horario.db"
	}
	return filepath.Join(home, ".local", "share", "horario", "horario.db")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "horario")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from path. Defaults come first, then the
// file if it exists, then environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies HORARIO_* variables on top of file values.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"HORARIO_DAY_START":    &cfg.Grid.DayStart,
		"HORARIO_DAY_END":      &cfg.Grid.DayEnd,
		"HORARIO_CATALOG":      &cfg.Catalog.Path,
		"HORARIO_DB_PATH":      &cfg.Storage.DBPath,
		"HORARIO_LLM_PROVIDER": &cfg.LLM.Provider,
		"HORARIO_LLM_MODEL":    &cfg.LLM.Model,
		"HORARIO_LLM_BASE_URL": &cfg.LLM.BaseURL,
		"HORARIO_UI_THEME":     &cfg.UI.Theme,
	}
	for env, field := range strs {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("HORARIO_DAYS"); v != "" {
		cfg.Grid.Days = nil
		for _, d := range strings.Split(v, ",") {
			cfg.Grid.Days = append(cfg.Grid.Days, strings.TrimSpace(d))
		}
	}
	if v := os.Getenv("HORARIO_NO_COLOR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HORARIO_NO_COLOR: %w", err)
		}
		cfg.UI.NoColor = b
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateTime(c.Grid.DayStart, "day_start"); err != nil {
		return err
	}
	if err := validateTime(c.Grid.DayEnd, "day_end"); err != nil {
		return err
	}
	if c.Grid.DayStart < EarliestHour || c.Grid.DayEnd > LatestHour {
		return fmt.Errorf("grid must lie within %s-%s", EarliestHour, LatestHour)
	}
	if _, err := c.BuildGrid(); err != nil {
		return err
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	return nil
}

// BuildGrid returns the time grid described by the [grid] section.
func (c *Config) BuildGrid() (*grid.Grid, error) {
	g, err := grid.New(c.Grid.Days, c.Grid.DayStart, c.Grid.DayEnd)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return g, nil
}

// validateTime checks that t is HH:MM with digits.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' || !isDigits(t[0:2]) || !isDigits(t[3:5]) {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
