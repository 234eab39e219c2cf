package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Remote   RemoteConfig   `toml:"remote"`
	Taxonomy TaxonomyConfig `toml:"taxonomy"`
	Wizard   WizardConfig   `toml:"wizard"`
	Roster   RosterConfig   `toml:"roster"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr joins host and port into a listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RemoteConfig points at a hosted REST database serving the taxonomy collections.
type RemoteConfig struct {
	BaseURL      string   `toml:"base_url"`
	APIKey       string   `toml:"api_key"`
	PollInterval Duration `toml:"poll_interval"`
}

// TaxonomyConfig selects the taxonomy backing store and reload throttling.
type TaxonomyConfig struct {
	Source         string  `toml:"source"` // sqlite or remote
	ReloadsPerSec  float64 `toml:"reloads_per_sec"`
	RepairRatePerS float64 `toml:"repair_rate_per_sec"`
}

// WizardConfig holds the fixed answer sets and shortcuts of the event wizard.
type WizardConfig struct {
	QuickEvents     []string       `toml:"quick_events"`
	CategoryHotkeys []CategoryKey  `toml:"categories"`
	PressureOptions []OptionConfig `toml:"pressure"`
	BodyPartOptions []OptionConfig `toml:"body_parts"`
	PressureEvents  []string       `toml:"pressure_events"`
	BodyPartEvents  []string       `toml:"body_part_events"`
	SaveKeys        []string       `toml:"save_keys"`
	CancelKeys      []string       `toml:"cancel_keys"`
}

// CategoryKey binds a label category to a hotkey.
type CategoryKey struct {
	Name   string `toml:"name"`
	Hotkey string `toml:"hotkey"`
}

// OptionConfig is a single pressure or body-part answer.
type OptionConfig struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Hotkey string `toml:"hotkey"`
}

// RosterConfig lists the teams and players available to the operator.
type RosterConfig struct {
	Teams []TeamConfig `toml:"teams"`
}

// TeamConfig is one side of the match.
type TeamConfig struct {
	Name    string         `toml:"name"`
	Players []PlayerConfig `toml:"players"`
}

// PlayerConfig is one rostered player.
type PlayerConfig struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Number int    `toml:"number"`
}

// LogConfig controls logger verbosity and the TUI log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration wraps [time.Duration] so TOML values like "5s" decode.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks cross-field constraints that TOML decoding cannot express.
func (c *Config) Validate() error {
	switch c.Taxonomy.Source {
	case "sqlite", "":
	case "remote":
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("%w: remote.base_url is required when taxonomy.source = \"remote\"", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown taxonomy.source %q", ErrInvalidConfig, c.Taxonomy.Source)
	}

	for _, opts := range [][]OptionConfig{c.Wizard.PressureOptions, c.Wizard.BodyPartOptions} {
		seen := map[string]bool{}
		for _, o := range opts {
			if len([]rune(o.Hotkey)) != 1 {
				return fmt.Errorf("%w: option %q hotkey must be a single character", ErrInvalidConfig, o.Name)
			}
			if seen[o.Hotkey] {
				return fmt.Errorf("%w: duplicate option hotkey %q", ErrInvalidConfig, o.Hotkey)
			}
			seen[o.Hotkey] = true
		}
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
