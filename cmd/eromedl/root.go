package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"eromedl/pkg/config"
	"eromedl/pkg/logger"
	"eromedl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool

	// logLevelSet records that --log-level was given explicitly
	logLevelSet bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eromedl",
	Short: "Download erome albums and archive them as zip files",
	Long: `eromedl downloads every video and image of an erome album, stores them
in a folder named after the album title and replaces the folder with a zip
archive once the album is complete.

Album URLs are read from a queue file (url.txt by default), from the command
line, or from a prompt. Finished albums are removed from the queue so an
interrupted run picks up where it stopped. Files already on disk are skipped.

Features:
  - Randomized pacing between files and albums
  - Retry with randomized backoff for album pages
  - Bounded concurrent downloads
  - Whole-profile downloads
  - Interactive terminal UI and desktop notifications`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetColorEnabled(false)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" && !quiet {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.eromedl.yaml or ~/.config/eromedl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of the console")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show log output alongside progress")

	rootCmd.SetVersionTemplate(`eromedl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the persistent flags with the command's own flags and
// loads the configuration from every source
func loadConfig(cmd *cobra.Command, flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
		logLevelSet = true
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}

	return config.Load(configFile, flags)
}

// setupLogging installs the global logger for the loaded configuration
func setupLogging(cfg *config.Config) error {
	logCfg := consoleLogging(cfg.Logging, verbose || logLevelSet)
	if err := logger.Initialize(&logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("eromedl starting")
	return nil
}

// consoleLogging keeps console logs out of the way of the progress output:
// when logs go to the terminal at the default level and nothing asked for
// more, only errors are shown. Log files and explicit levels are untouched.
func consoleLogging(cfg config.LoggingConfig, explicit bool) config.LoggingConfig {
	if explicit || cfg.File != "" {
		return cfg
	}
	if strings.EqualFold(cfg.Level, config.DefaultConfig().Logging.Level) {
		cfg.Level = "error"
	}
	return cfg
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
