// Package config loads and validates greenledger settings from
// ~/.greenledger/config.yaml, environment variables and an optional
// project-local overlay.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output format names.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Environment overrides.
const (
	EnvHome          = "GREENLEDGER_HOME"
	EnvLogLevel      = "GREENLEDGER_LOG_LEVEL"
	EnvLogFormat     = "GREENLEDGER_LOG_FORMAT"
	EnvLogFile       = "GREENLEDGER_LOG_FILE"
	EnvStorePath     = "GREENLEDGER_STORE_PATH"
	EnvFactorVersion = "GREENLEDGER_FACTOR_VERSION"
	EnvOutputFormat  = "GREENLEDGER_OUTPUT_FORMAT"
	EnvProjectDir    = "GREENLEDGER_PROJECT_DIR"
)

// Config is the complete application configuration.
type Config struct {
	Factors FactorsConfig `yaml:"factors"`
	Goals   GoalsConfig   `yaml:"goals"`
	Rewards RewardsConfig `yaml:"rewards"`
	Trend   TrendConfig   `yaml:"trend"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`

	configPath string
}

// FactorsConfig selects emission factor tables. Version is an exact
// version, a semver constraint or "latest"; Tables are extra YAML factor
// tables registered next to the built-in default.
type FactorsConfig struct {
	Version string   `yaml:"version"`
	Tables  []string `yaml:"tables,omitempty"`
}

// GoalsConfig bounds goal targets and sets completion rewards.
type GoalsConfig struct {
	MinTargetPct float64          `yaml:"min_target_pct"`
	MaxTargetPct float64          `yaml:"max_target_pct"`
	Milestones   MilestonesConfig `yaml:"milestones"`
}

// MilestonesConfig holds tokens per goal difficulty.
type MilestonesConfig struct {
	Easy   int64 `yaml:"easy"`
	Medium int64 `yaml:"medium"`
	Hard   int64 `yaml:"hard"`
}

// RewardsConfig configures the catalog and tiers. CatalogFile replaces the
// built-in catalog when set.
type RewardsConfig struct {
	CatalogFile string      `yaml:"catalog_file,omitempty"`
	Tiers       TiersConfig `yaml:"tiers"`
}

// TiersConfig holds lifetime-earned thresholds per tier.
type TiersConfig struct {
	Sapling int64 `yaml:"sapling"`
	Grove   int64 `yaml:"grove"`
	Forest  int64 `yaml:"forest"`
}

// TrendConfig configures comparisons and the peer feed. PeerMeansFile
// replaces the built-in peer means with a YAML file of per-category values.
type TrendConfig struct {
	Epsilon       float64 `yaml:"epsilon"`
	PeerEnabled   bool    `yaml:"peer_enabled"`
	PeerSeed      uint64  `yaml:"peer_seed"`
	PeerSpread    float64 `yaml:"peer_spread"`
	PeerMeansFile string  `yaml:"peer_means_file,omitempty"`
}

// StoreConfig locates the state file.
type StoreConfig struct {
	Path         string `yaml:"path"`
	HistoryLimit int    `yaml:"history_limit"`
}

// CacheConfig controls the footprint result cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	Directory  string `yaml:"directory,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Precision     int    `yaml:"precision"`
}

// Defaults returns the built-in configuration without touching the
// filesystem or environment.
func Defaults() *Config {
	dir, err := GetConfigDir()
	if err != nil {
		dir = ".greenledger"
	}
	return &Config{
		Factors: FactorsConfig{Version: "latest"},
		Goals: GoalsConfig{
			MinTargetPct: 5,
			MaxTargetPct: 40,
			Milestones:   MilestonesConfig{Easy: 50, Medium: 100, Hard: 200},
		},
		Rewards: RewardsConfig{
			Tiers: TiersConfig{Sapling: 500, Grove: 2000, Forest: 5000},
		},
		Trend: TrendConfig{
			Epsilon:     1e-6,
			PeerEnabled: true,
			PeerSeed:    1,
			PeerSpread:  0.25,
		},
		Store: StoreConfig{
			Path:         filepath.Join(dir, "state.json"),
			HistoryLimit: 100,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
			Directory:  filepath.Join(dir, "cache"),
		},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Output:     OutputConfig{DefaultFormat: FormatTable, Precision: 2},
		configPath: filepath.Join(dir, "config.yaml"),
	}
}

// New returns the defaults, overlaid with the user config file when it
// exists and then with environment overrides. A malformed config file is
// ignored so the CLI stays usable; `config validate` reports it.
func New() *Config {
	cfg := Defaults()
	if _, err := os.Stat(cfg.configPath); err == nil {
		_ = cfg.Load()
	}
	cfg.ApplyEnvOverrides()
	return cfg
}

// Path returns the config file location.
func (c *Config) Path() string { return c.configPath }

// SetPath changes the config file location used by Load and Save.
func (c *Config) SetPath(path string) { c.configPath = path }

// Load reads the config file on top of the current values.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", c.configPath, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", c.configPath, err)
	}
	return nil
}

// Save writes the config file, creating its directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", c.configPath, err)
	}
	return nil
}

// ApplyEnvOverrides copies GREENLEDGER_* variables over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvFactorVersion); v != "" {
		c.Factors.Version = v
	}
	if v := os.Getenv(EnvOutputFormat); v != "" {
		c.Output.DefaultFormat = strings.ToLower(v)
	}
	if v := os.Getenv("GREENLEDGER_PEER_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Trend.PeerSeed = seed
		}
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Factors.Version) == "" {
		add("factors.version: must not be empty")
	}

	g := c.Goals
	if g.MinTargetPct <= 0 || g.MaxTargetPct > 100 || g.MinTargetPct > g.MaxTargetPct {
		add("goals: target bounds [%v, %v] must satisfy 0 < min <= max <= 100", g.MinTargetPct, g.MaxTargetPct)
	}
	m := g.Milestones
	if m.Easy < 0 || m.Medium < 0 || m.Hard < 0 {
		add("goals.milestones: rewards must not be negative")
	}

	tiers := c.Rewards.Tiers
	if tiers.Sapling <= 0 || tiers.Grove <= tiers.Sapling || tiers.Forest <= tiers.Grove {
		add("rewards.tiers: thresholds must be positive and strictly increasing")
	}

	if c.Trend.Epsilon <= 0 || math.IsNaN(c.Trend.Epsilon) {
		add("trend.epsilon: must be positive")
	}
	if c.Trend.PeerSpread < 0 || c.Trend.PeerSpread > 1 {
		add("trend.peer_spread: must be within [0, 1]")
	}

	if c.Store.HistoryLimit <= 0 {
		add("store.history_limit: must be positive")
	}
	if c.Cache.Enabled && (c.Cache.TTLSeconds < 60 || c.Cache.TTLSeconds > 604800) {
		add("cache.ttl_seconds: must be between 60 and 604800")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		add("logging.level: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console", "text":
	default:
		add("logging.format: unknown format %q", c.Logging.Format)
	}

	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON:
	default:
		add("output.default_format: must be %q or %q", FormatTable, FormatJSON)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 6 {
		add("output.precision: must be between 0 and 6")
	}

	return errors.Join(errs...)
}
