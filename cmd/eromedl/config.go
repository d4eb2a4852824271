package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"eromedl/pkg/config"
	"eromedl/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage eromedl configuration files.

Configuration is merged from, lowest priority first:
  - Default values
  - Configuration file
  - .env file and EROMEDL_* environment variables
  - Command line flags`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to .eromedl.yaml in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# eromedl configuration file
#
# Every option can also be set through an EROMEDL_ environment variable,
# for example EROMEDL_OUTPUT_DIR or EROMEDL_MAX_CONNECTIONS.

site:
  # Only URLs on this host are accepted
  host: "www.erome.com"
  user_agent: "Mozilla/5.0"
  # Path fragment identifying album links on profile pages
  album_marker: "/a/"
  request_timeout: 30s
  # Profile listing pages followed at most
  max_profile_pages: 10

output:
  # Albums are stored as <base_directory>/<profile>/<title>.zip
  base_directory: "./downloads"
  # One album URL per line; finished albums are removed
  queue_file: "url.txt"

download:
  # Range: 1-20
  max_connections: 5
  # Download the files of an album concurrently
  parallel: false
  skip_videos: false
  skip_images: false
  # Files on disk within this many bytes of the remote size are skipped
  size_tolerance: 50
  chunk_size: 1024
  # 0 means no limit
  download_timeout: 0s
  # Move on to the next album when one fails
  continue_on_error: false

retry:
  # Attempts per album or profile page
  max_attempts: 5
  min_delay: 5s
  max_delay: 10s

pacing:
  # Random pause after each file
  file_delay_min: 1s
  file_delay_max: 5s
  # Random pause after each album
  cooldown_min: 15s
  cooldown_max: 25s
  # 0 disables the page request limit
  page_requests_per_minute: 30

notifications:
  enabled: false
  on_complete: true
  on_error: true

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # Leave empty to log to the console
  file: ""
  json: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".eromedl.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		return fmt.Errorf("remove %s first to overwrite it", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Edit the file to taste")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Run 'eromedl config validate' to check it")
	fmt.Fprintln(cmd.OutOrStdout(), "3. Add album URLs to url.txt and run 'eromedl dump'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), string(data))

	fmt.Fprintln(cmd.OutOrStdout(), "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Command line flags")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Environment variables (EROMEDL_*) and .env")
	if configFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "3. Configuration file: first found of")
		for _, p := range config.SearchPaths() {
			fmt.Fprintf(cmd.OutOrStdout(), "     %s\n", p)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		for _, candidate := range config.SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config")
			return errors.New("no configuration file found")
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration has errors")
		for _, e := range unwrapJoined(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", e)
		}
		return errors.New("configuration is invalid")
	}

	if cfg.Pacing.FileDelayMax == 0 && cfg.Pacing.CooldownMax == 0 {
		ui.PrintWarning("Warning", "pacing is disabled, the site may throttle requests")
	}

	ui.PrintSuccess("Configuration is valid")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Host: %s\n", cfg.Site.Host)
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(out, "  Queue file: %s\n", cfg.Output.QueueFile)
	fmt.Fprintf(out, "  Max connections: %d (parallel: %t)\n", cfg.Download.MaxConnections, cfg.Download.Parallel)
	fmt.Fprintf(out, "  Retries: %d, %s-%s apart\n", cfg.Retry.MaxAttempts, cfg.Retry.MinDelay, cfg.Retry.MaxDelay)
	fmt.Fprintf(out, "  Cooldown: %s-%s\n", cfg.Pacing.CooldownMin, cfg.Pacing.CooldownMax)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// unwrapJoined splits an errors.Join result into its parts
func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
