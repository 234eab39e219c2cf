package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./pitchlog.db" {
			t.Errorf("expected database path ./pitchlog.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Taxonomy.Source != "sqlite" {
			t.Errorf("expected sqlite taxonomy source, got %s", config.Taxonomy.Source)
		}

		if config.Remote.PollInterval.Duration != 5*time.Second {
			t.Errorf("expected poll interval 5s, got %v", config.Remote.PollInterval)
		}

		if len(config.Wizard.PressureOptions) != 2 {
			t.Errorf("expected 2 pressure options, got %d", len(config.Wizard.PressureOptions))
		}

		if len(config.Wizard.BodyPartOptions) != 4 {
			t.Errorf("expected 4 body part options, got %d", len(config.Wizard.BodyPartOptions))
		}

		if len(config.Roster.Teams) != 2 || len(config.Roster.Teams[0].Players) == 0 {
			t.Errorf("expected a two-team roster, got %+v", config.Roster.Teams)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[taxonomy]
source = "remote"

[remote]
base_url = "https://db.example.com"
api_key = "anon"
poll_interval = "30s"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Remote.PollInterval.Duration != 30*time.Second {
			t.Errorf("expected poll interval 30s, got %v", config.Remote.PollInterval)
		}

		if len(config.Wizard.PressureOptions) != 2 {
			t.Errorf("unset sections should keep defaults, got %d pressure options", len(config.Wizard.PressureOptions))
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "remote without base url", mutate: func(c *Config) {
				c.Taxonomy.Source = "remote"
				c.Remote.BaseURL = ""
			}},
			{name: "unknown source", mutate: func(c *Config) { c.Taxonomy.Source = "ftp" }},
			{name: "multi-character hotkey", mutate: func(c *Config) { c.Wizard.PressureOptions[0].Hotkey = "QQ" }},
			{name: "duplicate hotkey", mutate: func(c *Config) { c.Wizard.BodyPartOptions[1].Hotkey = "Q" }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("Invalid Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[remote]\npoll_interval = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error for invalid duration")
		}
	})
}
