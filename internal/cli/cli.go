//-------------------------------------------------------------------------
//
// pgEdge Tick Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-tickpipe.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-tickpipe/internal/config"
	"github.com/pgEdge/pgedge-tickpipe/internal/logging"
	"github.com/pgEdge/pgedge-tickpipe/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	stagingDir string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-tickpipe",
		Short: "Scheduled ETL pipeline for synthetic stock tick data",
		Long: `pgedge-tickpipe is a CLI tool that fabricates batches of synthetic
stock ticks, consolidates them into a normalized table artifact, and
upserts that table into PostgreSQL.

The stages communicate only through files in a staging area, so each
stage can be run and inspected on its own, or the whole pipeline can be
run on a schedule with the 'run' command.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-tickpipe.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&stagingDir, "staging-dir", "",
		"staging area root directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(runCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if stagingDir != "" {
		cfg.StagingDir = stagingDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(cfg.LogLevel, true)

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
