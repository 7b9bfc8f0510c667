package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultKnowledgeDB = "~/Library/Application Support/Knowledge/knowledgeC.db"
	defaultPlotDir     = "~/Nextcloud/coding/screentime/plots"
	defaultExportDir   = "~/Nextcloud/coding/screentime/data_bkp"
	defaultGranularity = "week"
)

// Config holds the application configuration
type Config struct {
	KnowledgeDB string        `yaml:"knowledge_db,omitempty"` // Path to knowledgeC.db
	PlotDir     string        `yaml:"plot_dir,omitempty"`     // Where charts are written (must exist)
	ExportDir   string        `yaml:"export_dir,omitempty"`   // Where snapshots are written (must exist)
	Granularity string        `yaml:"granularity,omitempty"`  // day, week, month or year
	Timezone    string        `yaml:"timezone,omitempty"`     // IANA name, empty for local time
	Workers     int           `yaml:"workers,omitempty"`      // Parallel device renders (fallback: 1)
	Chart       ChartConfig   `yaml:"chart,omitempty"`
	Logging     LoggingConfig `yaml:"logging,omitempty"`
	MQTT        MQTTConfig    `yaml:"mqtt,omitempty"`
}

// ChartConfig holds rendering dimensions
type ChartConfig struct {
	Width     int `yaml:"width,omitempty"`      // Image width in pixels (fallback: 1600)
	RowHeight int `yaml:"row_height,omitempty"` // Pixels per app row (fallback: 28)
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// MQTTConfig holds broker settings for publishing bucket totals
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // e.g., "homeassistant.local:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: "screentime"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetKnowledgeDB returns the knowledge store path with ~ expanded
func (c *Config) GetKnowledgeDB() string {
	if c.KnowledgeDB == "" {
		return ExpandHome(defaultKnowledgeDB)
	}
	return ExpandHome(c.KnowledgeDB)
}

// GetPlotDir returns the chart output directory with ~ expanded
func (c *Config) GetPlotDir() string {
	if c.PlotDir == "" {
		return ExpandHome(defaultPlotDir)
	}
	return ExpandHome(c.PlotDir)
}

// GetExportDir returns the snapshot directory with ~ expanded
func (c *Config) GetExportDir() string {
	if c.ExportDir == "" {
		return ExpandHome(defaultExportDir)
	}
	return ExpandHome(c.ExportDir)
}

// GetGranularity returns the configured granularity token, defaulting to week.
// The token is not validated here; the planner handles unknown values.
func (c *Config) GetGranularity() string {
	if c.Granularity == "" {
		return defaultGranularity
	}
	return c.Granularity
}

// GetLocation resolves the configured timezone, falling back to time.Local
func (c *Config) GetLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetWorkers returns the number of parallel renders with a default of 1
func (c *Config) GetWorkers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}

// GetWidth returns the chart width with a default of 1600px
func (c ChartConfig) GetWidth() int {
	if c.Width <= 0 {
		return 1600
	}
	return c.Width
}

// GetRowHeight returns the per-app row height with a default of 28px
func (c ChartConfig) GetRowHeight() int {
	if c.RowHeight <= 0 {
		return 28
	}
	return c.RowHeight
}

// GetTopicPrefix returns the MQTT topic prefix with a default of "screentime"
func (c MQTTConfig) GetTopicPrefix() string {
	if c.TopicPrefix == "" {
		return "screentime"
	}
	return strings.TrimSuffix(c.TopicPrefix, "/")
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
