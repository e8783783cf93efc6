package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/config"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/logging"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/server"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "exportctl",
	Short: "Pick export directories and write files into them",
	Long: `exportctl drives the export bridge from a terminal.

It shares the grant table and document storage with the bridge server:
- pick: choose a directory and persist read/write access to it
- write: create a document inside a granted directory
- grants: list or revoke persisted grants`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (overrides "+config.FileEnv+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

// loadConfig resolves configuration the same way the server does.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.FileEnv, configPath); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

// openComponents builds the export stack for one command.
func openComponents(launchers server.LauncherFactory) (*server.Components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Logging
	logCfg.Development = true
	logCfg.Level = "warn"
	if verbose {
		logCfg.Level = "debug"
	}
	logger := logging.FromConfig(logCfg)
	return server.NewComponents(cfg, logger, launchers)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		newUI(os.Stderr).Errorf("%v", err)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}
}
