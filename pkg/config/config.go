package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variable overrides
const EnvPrefix = "EROMEDL_"

// Config holds all configuration options for the album downloader
type Config struct {
	// Source site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Output paths
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Page fetch retry policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Request spacing
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds settings for the single source host
type SiteConfig struct {
	Host            string        `yaml:"host" json:"host"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	AlbumMarker     string        `yaml:"album_marker" json:"album_marker"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxProfilePages int           `yaml:"max_profile_pages" json:"max_profile_pages"`
}

// OutputConfig holds the on-disk locations
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	QueueFile     string `yaml:"queue_file" json:"queue_file"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	MaxConnections  int           `yaml:"max_connections" json:"max_connections"`
	Parallel        bool          `yaml:"parallel" json:"parallel"`
	SkipVideos      bool          `yaml:"skip_videos" json:"skip_videos"`
	SkipImages      bool          `yaml:"skip_images" json:"skip_images"`
	SizeTolerance   int64         `yaml:"size_tolerance" json:"size_tolerance"`
	ChunkSize       int           `yaml:"chunk_size" json:"chunk_size"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	ContinueOnError bool          `yaml:"continue_on_error" json:"continue_on_error"`
}

// RetryConfig holds the page fetch retry policy
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	MinDelay    time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// PacingConfig holds the randomized spacing between requests and albums
type PacingConfig struct {
	FileDelayMin          time.Duration `yaml:"file_delay_min" json:"file_delay_min"`
	FileDelayMax          time.Duration `yaml:"file_delay_max" json:"file_delay_max"`
	CooldownMin           time.Duration `yaml:"cooldown_min" json:"cooldown_min"`
	CooldownMax           time.Duration `yaml:"cooldown_max" json:"cooldown_max"`
	PageRequestsPerMinute int           `yaml:"page_requests_per_minute" json:"page_requests_per_minute"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Host:            "www.erome.com",
			UserAgent:       "Mozilla/5.0",
			AlbumMarker:     "/a/",
			RequestTimeout:  30 * time.Second,
			MaxProfilePages: 10,
		},
		Output: OutputConfig{
			BaseDirectory: "./downloads",
			QueueFile:     "url.txt",
		},
		Download: DownloadConfig{
			MaxConnections:  5,
			Parallel:        false,
			SkipVideos:      false,
			SkipImages:      false,
			SizeTolerance:   50,
			ChunkSize:       1024,
			DownloadTimeout: 0, // 0 means no limit
			ContinueOnError: false,
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			MinDelay:    5 * time.Second,
			MaxDelay:    10 * time.Second,
		},
		Pacing: PacingConfig{
			FileDelayMin:          1 * time.Second,
			FileDelayMax:          5 * time.Second,
			CooldownMin:           15 * time.Second,
			CooldownMax:           25 * time.Second,
			PageRequestsPerMinute: 30,
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
			JSON:  false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if host := os.Getenv(EnvPrefix + "HOST"); host != "" {
		c.Site.Host = host
	}
	if userAgent := os.Getenv(EnvPrefix + "USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}

	if outputDir := os.Getenv(EnvPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if queueFile := os.Getenv(EnvPrefix + "QUEUE_FILE"); queueFile != "" {
		c.Output.QueueFile = queueFile
	}

	if v := os.Getenv(EnvPrefix + "MAX_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_CONNECTIONS: %w", EnvPrefix, err))
		} else if n > 0 {
			c.Download.MaxConnections = n
		}
	}
	if v := os.Getenv(EnvPrefix + "SKIP_VIDEOS"); v != "" {
		c.Download.SkipVideos = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "SKIP_IMAGES"); v != "" {
		c.Download.SkipImages = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "PARALLEL"); v != "" {
		c.Download.Parallel = parseBool(v)
	}

	if v := os.Getenv(EnvPrefix + "RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRETRY_ATTEMPTS: %w", EnvPrefix, err))
		} else {
			c.Retry.MaxAttempts = n
		}
	}

	if notifEnabled := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = parseBool(notifEnabled)
	}

	if logLevel := os.Getenv(EnvPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(EnvPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// SearchPaths lists the config file locations in order of precedence
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		".eromedl.yaml",
		".eromedl.yml",
		filepath.Join(home, ".config", "eromedl", "config.yaml"),
		filepath.Join(home, ".config", "eromedl", "config.yml"),
		filepath.Join(home, ".eromedl.yaml"),
		filepath.Join(home, ".eromedl.yml"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.Host == "" {
		errs = append(errs, errors.New("site host is required"))
	}
	if c.Site.AlbumMarker == "" {
		errs = append(errs, errors.New("album marker is required"))
	}
	if c.Site.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}
	if c.Site.MaxProfilePages <= 0 {
		errs = append(errs, errors.New("max profile pages must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.QueueFile == "" {
		errs = append(errs, errors.New("queue file is required"))
	}

	if c.Download.MaxConnections <= 0 {
		errs = append(errs, errors.New("max connections must be positive"))
	}
	if c.Download.MaxConnections > 20 {
		errs = append(errs, errors.New("max connections should not exceed 20"))
	}
	if c.Download.SizeTolerance < 0 {
		errs = append(errs, errors.New("size tolerance cannot be negative"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Download.DownloadTimeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}
	if c.Download.SkipVideos && c.Download.SkipImages {
		errs = append(errs, errors.New("skipping both videos and images leaves nothing to download"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry attempts must be positive"))
	}
	errs = append(errs, validateRange("retry delay", c.Retry.MinDelay, c.Retry.MaxDelay)...)
	errs = append(errs, validateRange("file delay", c.Pacing.FileDelayMin, c.Pacing.FileDelayMax)...)
	errs = append(errs, validateRange("cooldown", c.Pacing.CooldownMin, c.Pacing.CooldownMax)...)
	if c.Pacing.PageRequestsPerMinute < 0 {
		errs = append(errs, errors.New("page requests per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateRange(name string, lo, hi time.Duration) []error {
	var errs []error
	if lo < 0 || hi < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative", name))
	}
	if lo > hi {
		errs = append(errs, fmt.Errorf("%s minimum (%s) exceeds maximum (%s)", name, lo, hi))
	}
	return errs
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if queueFile, ok := flags["queue"].(string); ok && queueFile != "" {
		c.Output.QueueFile = queueFile
	}
	if maxConn, ok := flags["max-connections"].(int); ok && maxConn > 0 {
		c.Download.MaxConnections = maxConn
	}
	if skip, ok := flags["skip-videos"].(bool); ok {
		c.Download.SkipVideos = skip
	}
	if skip, ok := flags["skip-images"].(bool); ok {
		c.Download.SkipImages = skip
	}
	if parallel, ok := flags["parallel"].(bool); ok {
		c.Download.Parallel = parallel
	}
	if cont, ok := flags["continue-on-error"].(bool); ok {
		c.Download.ContinueOnError = cont
	}
	if attempts, ok := flags["max-retries"].(int); ok && attempts > 0 {
		c.Retry.MaxAttempts = attempts
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".eromedl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
