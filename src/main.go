package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hexymap/hexy/src/config"
	"github.com/hexymap/hexy/src/crypto"
	"github.com/hexymap/hexy/src/database"
	"github.com/hexymap/hexy/src/engine"
	"github.com/hexymap/hexy/src/fileio"
	"github.com/hexymap/hexy/src/logging"
	"github.com/hexymap/hexy/src/utils"
)

var defaultConfigFiles = []string{"hexy.yaml", "hexy.yml", "hexy.toml"}

var (
	configPath string
	logLevel   string
	outPath    string
)

var rootCmd = &cobra.Command{
	Use:           "hexy",
	Short:         "Draw the H3 cells your Strava activities cover",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a new fernet key for FERNET_KEYS",
	RunE:  runKeygen,
}

var cellsCmd = &cobra.Command{
	Use:   "cells <file.gpx>",
	Short: "Build the map payload for a GPX file without Strava",
	Args:  cobra.ExactArgs(1),
	RunE:  runCells,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a yaml or toml config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cellsCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the payload to this file instead of stdout")

	rootCmd.AddCommand(serveCmd, migrateCmd, keygenCmd, cellsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file (flag or first default found) and
// the environment, then sets up logging.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotenv(); err != nil {
		return nil, err
	}
	path := configPath
	if path == "" {
		for _, f := range defaultConfigFiles {
			if utils.FileExists(f) {
				path = f
				break
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logging.New(cfg.Logging.Level, cfg.Logging.Console)
	if path != "" {
		log.Debug().Str("path", path).Msg("loaded config")
	}
	return cfg, nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, migrate bool) (*sqlx.DB, error) {
	db, err := database.SqlInitialize(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		if err := database.PrepSqlite(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cmd.Context(), cfg.Database, true)
	if err != nil {
		return err
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
	return db.Close()
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func runCells(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	activities, err := fileio.ReadGPXFile(args[0])
	if err != nil {
		return err
	}
	data, err := engine.Build(cmd.Context(), activities, engine.Options{
		Resolution:         cfg.Engine.Resolution,
		CentroidResolution: cfg.Engine.CentroidResolution,
		Workers:            cfg.Engine.Workers,
	})
	if err != nil {
		return err
	}
	log.Info().
		Int("activities", len(activities)).
		Int("cells", len(data.Cells)).
		Dur("took", time.Since(start)).
		Msg("built payload")

	if outPath != "" {
		return utils.WriteAsJsonFile(data, outPath)
	}
	return utils.WriteJson(cmd.OutOrStdout(), data)
}
