package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/javiermolinar/horario/internal/grid"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Grid.DayStart != "07:00" {
		t.Errorf("expected day_start 07:00, got %s", cfg.Grid.DayStart)
	}
	if cfg.Grid.DayEnd != "23:00" {
		t.Errorf("expected day_end 23:00, got %s", cfg.Grid.DayEnd)
	}
	if len(cfg.Grid.Days) != 6 {
		t.Errorf("expected 6 days, got %d", len(cfg.Grid.Days))
	}
	if cfg.LLM.Provider != "copilot" {
		t.Errorf("expected provider copilot, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxRetries != 2 {
		t.Errorf("expected max_retries 2, got %d", cfg.LLM.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Grid.DayStart != "07:00" {
		t.Errorf("expected default day_start, got %s", cfg.Grid.DayStart)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[grid]
days = ["monday", "wednesday", "friday"]
day_start = "08:00"
day_end = "20:00"

[catalog]
path = "/tmp/catalog.yaml"

[storage]
db_path = "/tmp/test.db"

[llm]
provider = "ollama"
model = "llama3"
max_retries = 4

[ui]
no_color = true
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Grid.DayStart != "08:00" || cfg.Grid.DayEnd != "20:00" {
		t.Errorf("grid hours = %s-%s", cfg.Grid.DayStart, cfg.Grid.DayEnd)
	}
	if len(cfg.Grid.Days) != 3 {
		t.Errorf("expected 3 days, got %d", len(cfg.Grid.Days))
	}
	if cfg.Catalog.Path != "/tmp/catalog.yaml" {
		t.Errorf("catalog path = %s", cfg.Catalog.Path)
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("db_path = %s", cfg.Storage.DBPath)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama3" || cfg.LLM.MaxRetries != 4 {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	// unset keys keep their defaults
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Errorf("base_url = %s", cfg.LLM.BaseURL)
	}
	if !cfg.UI.NoColor {
		t.Error("expected no_color true")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[grid]
day_start = "08:00"
day_end = "20:00"

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("HORARIO_DAY_START", "09:00")
	t.Setenv("HORARIO_DAYS", "monday, tuesday")
	t.Setenv("HORARIO_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("HORARIO_NO_COLOR", "1")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Grid.DayStart != "09:00" {
		t.Errorf("expected day_start 09:00 from env, got %s", cfg.Grid.DayStart)
	}
	if cfg.Grid.DayEnd != "20:00" {
		t.Errorf("expected day_end 20:00 from file, got %s", cfg.Grid.DayEnd)
	}
	if len(cfg.Grid.Days) != 2 || cfg.Grid.Days[1] != "tuesday" {
		t.Errorf("days = %v", cfg.Grid.Days)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("model = %s", cfg.LLM.Model)
	}
	if !cfg.UI.NoColor {
		t.Error("expected no_color from env")
	}
}

func TestLoadFrom_BadNoColorEnv(t *testing.T) {
	t.Setenv("HORARIO_NO_COLOR", "maybe")
	if _, err := LoadFrom("/nonexistent/config.toml"); err == nil {
		t.Fatal("expected error for unparsable HORARIO_NO_COLOR")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing leading zero", func(c *Config) { c.Grid.DayStart = "9:00" }},
		{"start after end", func(c *Config) { c.Grid.DayStart, c.Grid.DayEnd = "18:00", "09:00" }},
		{"half hour bound", func(c *Config) { c.Grid.DayStart = "07:30" }},
		{"before earliest hour", func(c *Config) { c.Grid.DayStart = "06:00" }},
		{"after latest hour", func(c *Config) { c.Grid.DayEnd = "23:30" }},
		{"sunday", func(c *Config) { c.Grid.Days = []string{"sunday"} }},
		{"no days", func(c *Config) { c.Grid.Days = nil }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"negative retries", func(c *Config) { c.LLM.MaxRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBuildGrid(t *testing.T) {
	cfg := Default()
	cfg.Grid.Days = []string{"friday", "monday"}
	cfg.Grid.DayStart, cfg.Grid.DayEnd = "08:00", "12:00"

	g, err := cfg.BuildGrid()
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}
	days := g.Days()
	if len(days) != 2 || days[0] != grid.Monday || days[1] != grid.Friday {
		t.Errorf("days = %v, want [monday friday]", days)
	}
	if len(g.Hours()) != 5 {
		t.Errorf("hours = %v, want 08:00..12:00", g.Hours())
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test.db", filepath.Join(home, "test.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := expandPath(tc.input); got != tc.want {
				t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Grid.DayStart = "08:00"
	cfg.Grid.DayEnd = "14:00"
	cfg.Grid.Days = []string{"monday", "tuesday", "wednesday", "thursday"}
	cfg.UI.Theme = "latte"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.Grid.DayStart != "08:00" || loaded.Grid.DayEnd != "14:00" {
		t.Errorf("grid hours = %s-%s", loaded.Grid.DayStart, loaded.Grid.DayEnd)
	}
	if len(loaded.Grid.Days) != 4 {
		t.Errorf("expected 4 days, got %d", len(loaded.Grid.Days))
	}
	if loaded.UI.Theme != "latte" {
		t.Errorf("theme = %s", loaded.UI.Theme)
	}
}
