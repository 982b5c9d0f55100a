// Package config loads and validates the daemon configuration. The core
// packages only ever see the parsed Config value; TOML parsing and path
// resolution stay here.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	nerrors "github.com/nirinit/nirinit/internal/errors"
)

// Config represents the application configuration
type Config struct {
	// Skip lists application ids excluded from restore.
	Skip SkipConfig `toml:"skip"`

	// Launch maps an application id to an explicit launch command. Apps
	// without a mapping are launched with the app id as the executable.
	Launch map[string]string `toml:"launch"`

	// SaveInterval is the autosave period.
	SaveInterval Duration `toml:"save_interval"`

	// RestoreTimeout bounds how long each restored entry waits for its
	// window to appear.
	RestoreTimeout Duration `toml:"restore_timeout"`

	// SpawnVia selects how restored applications are launched: "exec"
	// starts detached processes directly, "compositor" asks the
	// compositor to spawn them. Exec reports a missing executable
	// immediately; compositor spawns only ever fail by timing out.
	SpawnVia string `toml:"spawn_via"`

	// MetricsAddr enables the Prometheus listener when non-empty,
	// e.g. "127.0.0.1:9187".
	MetricsAddr string `toml:"metrics_addr"`

	// Journal persists restore/save outcomes to a local SQLite database.
	Journal bool `toml:"journal"`
}

// Spawn modes accepted by Config.SpawnVia.
const (
	SpawnViaExec       = "exec"
	SpawnViaCompositor = "compositor"
)

// SkipConfig holds the restore skip list.
type SkipConfig struct {
	Apps []string `toml:"apps"`
}

// Duration is a time.Duration that decodes from TOML strings like "5m" or
// bare integers meaning seconds (the original config used seconds).
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if dur, err := time.ParseDuration(s); err == nil {
		*d = Duration(dur)
		return nil
	}
	var secs int64
	if _, err := fmt.Sscanf(s, "%d", &secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	return fmt.Errorf("cannot parse duration %q", s)
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Launch:         map[string]string{},
		SaveInterval:   Duration(5 * time.Minute),
		RestoreTimeout: Duration(5 * time.Second),
		SpawnVia:       SpawnViaExec,
		Journal:        true,
	}
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nerrors.ConfigInvalid("path", fmt.Sprintf("configuration file not found: %s", configPath))
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the TOML content
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := toml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config file, falling back to defaults when the
// file is absent. Only a present-but-broken file is an error.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		if nerrors.IsCategory(err, nerrors.CategoryConfig) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Launch == nil {
		c.Launch = map[string]string{}
	}
	if c.SaveInterval <= 0 {
		c.SaveInterval = Duration(5 * time.Minute)
	}
	if c.RestoreTimeout <= 0 {
		c.RestoreTimeout = Duration(5 * time.Second)
	}
	if c.SaveInterval.Std() < time.Second {
		return nerrors.ConfigInvalid("save_interval", "must be at least one second")
	}
	switch c.SpawnVia {
	case "":
		c.SpawnVia = SpawnViaExec
	case SpawnViaExec, SpawnViaCompositor:
	default:
		return nerrors.ConfigInvalid("spawn_via", fmt.Sprintf("unknown mode %q", c.SpawnVia))
	}
	for app, cmd := range c.Launch {
		if cmd == "" {
			return nerrors.ConfigInvalid("launch", fmt.Sprintf("empty command for app %q", app))
		}
	}
	return nil
}

// Skipped reports whether the given application id is excluded from restore.
func (c *Config) Skipped(appID string) bool {
	for _, a := range c.Skip.Apps {
		if a == appID {
			return true
		}
	}
	return false
}
