// Package cmd provides the CLI commands for the postmeet tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/postmeet/config"
	"github.com/otherjamesbrown/postmeet/credentials"
	"github.com/otherjamesbrown/postmeet/pkg/db"
	"github.com/otherjamesbrown/postmeet/pkg/logging"
	"github.com/otherjamesbrown/postmeet/pkg/meeting/store"
	"github.com/otherjamesbrown/postmeet/pkg/recall"
)

// Global flags shared by all commands.
var (
	cfgFile      string
	outputFormat string
	logLevel     string
)

// RegisterGlobalFlags attaches the shared persistent flags to the root
// command.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.postmeet/config.yaml)")
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (text, json, yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig loads configuration and applies the global flag overrides.
func loadConfig() (*config.ServiceConfig, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if outputFormat != "" {
		cfg.OutputFormat = config.OutputFormat(outputFormat)
		if !cfg.OutputFormat.IsValid() {
			return nil, fmt.Errorf("invalid output format %q", outputFormat)
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// newLogger builds the service logger from config.
func newLogger(cfg *config.ServiceConfig) logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:       logging.Level(cfg.LogLevel),
		ServiceName: "postmeet",
		JSONFormat:  cfg.LogJSON,
	})
}

// resolveAPIKey finds the bot service API key: config file first, then the
// credential store (which itself honors POSTMEET_RECALL_API_KEY).
func resolveAPIKey(cfg *config.ServiceConfig) (string, error) {
	if cfg.Recall.APIKey != "" {
		return cfg.Recall.APIKey, nil
	}
	key, err := credentials.NewStore().GetAPIKey()
	if err != nil {
		return "", fmt.Errorf("no bot service API key configured, run 'postmeet auth set-key': %w", err)
	}
	return key, nil
}

// newRecallClient builds the bot service client from config.
func newRecallClient(cfg *config.ServiceConfig, logger logging.Logger) (*recall.Client, error) {
	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	return recall.NewClient(recall.Options{
		BaseURL: cfg.Recall.BaseURL,
		APIKey:  apiKey,
		Timeout: cfg.Recall.Timeout(),
		BotName: cfg.Recall.BotName,
		Logger:  logger,
	})
}

// connectStore opens the database pool and makes sure the schema exists.
func connectStore(ctx context.Context, cfg *config.ServiceConfig) (*pgxpool.Pool, *store.PostgresStore, error) {
	dbCfg := db.DefaultConfig()
	if cfg.Database.Host != "" {
		dbCfg.Host = cfg.Database.Host
	}
	if cfg.Database.Port != 0 {
		dbCfg.Port = cfg.Database.Port
	}
	if cfg.Database.Database != "" {
		dbCfg.Database = cfg.Database.Database
	}
	if cfg.Database.User != "" {
		dbCfg.User = cfg.Database.User
	}
	if cfg.Database.Password != "" {
		dbCfg.Password = cfg.Database.Password
	}
	if cfg.Database.SSLMode != "" {
		dbCfg.SSLMode = cfg.Database.SSLMode
	}

	pool, err := db.ConnectWithRetry(ctx, dbCfg, 3, 2*time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, store.NewPostgresStore(pool), nil
}

// printOutput renders v to w in the configured output format. The text
// renderer is used when the format is text.
func printOutput(w io.Writer, format config.OutputFormat, v any, text func(io.Writer)) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		return yaml.NewEncoder(w).Encode(v)
	default:
		text(w)
		return nil
	}
}
