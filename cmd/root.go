// Package cmd wires the core components behind a small CLI. It is glue:
// scanning, search, and streaming all live in internal packages.
package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/acrouzet/phono/internal/config"
	"github.com/acrouzet/phono/internal/db"
	"github.com/acrouzet/phono/internal/library"
)

var dbPathFlag string

var rootCmd = &cobra.Command{
	Use:   "phono",
	Short: "Index, search, and stream a personal music collection",
	Long: `phono maintains a searchable index of audio files under configured
root directories and serves byte ranges of them. The collection itself
is never written to.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "index database path (overrides config)")
}

// openEnv loads config and opens the index. Callers close the DB.
func openEnv() (*config.Config, *sql.DB, *library.Library, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if dbPathFlag != "" {
		cfg.DatabasePath = dbPathFlag
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	sqlDB, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, log, err
	}
	return cfg, sqlDB, library.New(sqlDB), log, nil
}
