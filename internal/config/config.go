package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Tests         TestsConfig         `toml:"tests"`
	History       HistoryConfig       `toml:"history"`
	Watch         WatchConfig         `toml:"watch"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	Registry  string `toml:"registry"`
	RunConfig string `toml:"run_config"`
	Debug     bool   `toml:"debug"`
	// Timeout bounds every child process, e.g. "30s". Empty or "0" disables it.
	Timeout string `toml:"timeout"`
}

// TestsConfig describes where test cases live and how they are named
type TestsConfig struct {
	Dirs         []string `toml:"dirs"`
	InputSuffix  string   `toml:"input_suffix"`
	OutputSuffix string   `toml:"output_suffix"`
}

// HistoryConfig holds run history settings
type HistoryConfig struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	Ignore   []string `toml:"ignore"`
	Debounce string   `toml:"debounce"`
	// SlowRun flags runs that take longer, e.g. "10s". Empty disables it.
	SlowRun string `toml:"slow_run"`
	// Schedule re-runs on a five-field cron expression in addition to
	// file changes, e.g. "0 6 1-25 12 *". Empty disables it.
	Schedule string `toml:"schedule"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			Registry:  "days.yaml",
			RunConfig: "run.yaml",
		},
		Tests: TestsConfig{
			Dirs:         []string{"tests"},
			InputSuffix:  ".in",
			OutputSuffix: ".out",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: filepath.Join(home, ".advent-runner", "history.db"),
		},
		Watch: WatchConfig{
			Ignore:   []string{"_build", "build", "target", "node_modules", "zig-out", "zig-cache"},
			Debounce: "300ms",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.General.Registry = ExpandPath(cfg.General.Registry)
	cfg.History.DatabasePath = ExpandPath(cfg.History.DatabasePath)

	return cfg, nil
}

// Validate checks the settings that cannot fall back to a default
func (c *Config) Validate() error {
	if c.General.RunConfig == "" {
		return fmt.Errorf("general.run_config must not be empty")
	}
	if c.Tests.InputSuffix == "" || c.Tests.OutputSuffix == "" {
		return fmt.Errorf("tests.input_suffix and tests.output_suffix must not be empty")
	}
	if c.Tests.InputSuffix == c.Tests.OutputSuffix {
		return fmt.Errorf("tests.input_suffix and tests.output_suffix must differ")
	}
	if _, err := c.ProcessTimeout(); err != nil {
		return err
	}
	if _, err := c.WatchDebounce(); err != nil {
		return err
	}
	if _, err := c.WatchSlowRun(); err != nil {
		return err
	}
	if _, err := c.WatchSchedule(); err != nil {
		return err
	}
	return nil
}

// ProcessTimeout parses general.timeout; zero means no limit
func (c *Config) ProcessTimeout() (time.Duration, error) {
	return parseDuration("general.timeout", c.General.Timeout, 0)
}

// WatchDebounce parses watch.debounce
func (c *Config) WatchDebounce() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Watch.Debounce, 300*time.Millisecond)
}

// WatchSlowRun parses watch.slow_run; zero disables the warning
func (c *Config) WatchSlowRun() (time.Duration, error) {
	return parseDuration("watch.slow_run", c.Watch.SlowRun, 0)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// WatchSchedule parses watch.schedule; nil means no scheduled re-runs
func (c *Config) WatchSchedule() (cron.Schedule, error) {
	if c.Watch.Schedule == "" {
		return nil, nil
	}
	sched, err := cronParser.Parse(c.Watch.Schedule)
	if err != nil {
		return nil, fmt.Errorf("watch.schedule: %w", err)
	}
	return sched, nil
}

func parseDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// LocalConfigName is the settings file looked up from the working directory upwards
const LocalConfigName = "advent-runner.toml"

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	if found := FindLocalConfig(); found != "" {
		return found
	}
	return LocalConfigName
}

// FindLocalConfig searches the working directory and its parents for
// LocalConfigName and returns its path, or "" if there is none
func FindLocalConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, LocalConfigName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadWithLocalFallback loads path when given, otherwise the nearest local config
func LoadWithLocalFallback(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	return Load(path)
}
