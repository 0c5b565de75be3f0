// Package root contains the root command for the application
package root

import (
	"csvimport/csv-import/internal/config"
	"csvimport/csv-import/internal/container"
	"csvimport/csv-import/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// AppConfig holds the configuration loaded before a command runs
	AppConfig *config.Config

	// AppContainer holds the wired application dependencies
	AppContainer *container.Container

	// ConfigFile is the path given with --config
	ConfigFile string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "csv-import",
		Short: "A CLI tool to import transaction CSV files into the ledger.",
		Long: `csv-import imports semicolon separated transaction files into the ledger.
Account and bank transfers are booked directly, direct debits are collected
into a DTAUS file. Files are picked up from an SFTP or GCS drop box.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to csv-import!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := Initialize(ConfigFile); err != nil {
				Log.Fatalf("Failed to initialize: %v", err)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				Log.WithError(err).Warn("Failed to close remote connection")
			}
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "Config file (default searches config.yaml in $HOME/.csv-import, .csv-import and .)")
}

// Initialize loads the environment and configuration and wires the
// container used by the subcommands.
func Initialize(configFile string) error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig(configFile)
	if err != nil {
		return err
	}
	Log = config.ConfigureLoggingFromConfig(cfg)

	c, err := container.NewContainer(cfg, container.WithLogger(Log))
	if err != nil {
		return err
	}

	AppConfig = cfg
	AppContainer = c
	return nil
}

// GetLogger returns the configured logger
func GetLogger() logging.Logger {
	return Log
}

// GetConfig returns the loaded configuration, nil before initialization
func GetConfig() *config.Config {
	return AppConfig
}

// GetContainer returns the application container, nil before initialization
func GetContainer() *container.Container {
	return AppContainer
}
