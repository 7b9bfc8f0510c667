package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jgoulah/screenflux/internal/config"
	"github.com/jgoulah/screenflux/internal/knowledge"
	"github.com/jgoulah/screenflux/internal/usage"
	"github.com/jgoulah/screenflux/pkg/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string

	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

var rootCmd = &cobra.Command{
	Use:   "screenflux",
	Short: "Chart app usage timelines from the macOS Screen Time store",
	Long: `screenflux reads application usage events from knowledgeC.db, groups them by
device and renders one timeline chart per device for every day, week, month or
year that has activity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger = setupLogger(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "knowledge store (default is ~/Library/Application Support/Knowledge/knowledgeC.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// getDBPath returns the knowledge store path, preferring the --db flag
func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return config.ExpandHome(dbPath)
	}
	return cfg.GetKnowledgeDB()
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	name := cfg.Level
	if logLevel != "" {
		name = logLevel
	}

	level := zerolog.InfoLevel
	switch name {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()
}

// loadRecords opens the knowledge store, fetches every usage row and
// normalizes it. Missing or unreadable stores get a remediation hint.
func loadRecords(ctx context.Context, cfg *config.Config) ([]models.UsageRecord, error) {
	path := getDBPath(cfg)

	store, err := knowledge.Open(path)
	switch {
	case errors.Is(err, knowledge.ErrStoreNotFound):
		return nil, fmt.Errorf("could not find knowledgeC.db: %w", err)
	case errors.Is(err, knowledge.ErrStoreUnreadable):
		return nil, fmt.Errorf("%w\nPlease grant full disk access to the application running screenflux (e.g. Terminal, iTerm, VSCode)", err)
	case err != nil:
		return nil, err
	}
	defer store.Close()

	loc, err := cfg.GetLocation()
	if err != nil {
		return nil, err
	}

	rows, err := store.FetchUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching usage: %w", err)
	}

	records := usage.NormalizeAll(rows, loc)
	logger.Debug().Str("path", path).Int("records", len(records)).Msg("Loaded usage records")
	return records, nil
}
