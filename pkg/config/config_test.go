package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)

	// Site defaults
	assert.Equal(t, "www.erome.com", cfg.Site.Host)
	assert.Equal(t, "Mozilla/5.0", cfg.Site.UserAgent)
	assert.Equal(t, "/a/", cfg.Site.AlbumMarker)

	// Output defaults
	assert.Equal(t, "./downloads", cfg.Output.BaseDirectory)
	assert.Equal(t, "url.txt", cfg.Output.QueueFile)

	// Download defaults
	assert.Equal(t, 5, cfg.Download.MaxConnections)
	assert.False(t, cfg.Download.Parallel)
	assert.False(t, cfg.Download.SkipVideos)
	assert.False(t, cfg.Download.SkipImages)
	assert.Equal(t, int64(50), cfg.Download.SizeTolerance)
	assert.Equal(t, 1024, cfg.Download.ChunkSize)

	// Retry and pacing defaults
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.MinDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 1*time.Second, cfg.Pacing.FileDelayMin)
	assert.Equal(t, 5*time.Second, cfg.Pacing.FileDelayMax)
	assert.Equal(t, 15*time.Second, cfg.Pacing.CooldownMin)
	assert.Equal(t, 25*time.Second, cfg.Pacing.CooldownMax)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EROMEDL_HOST", "127.0.0.1")
	t.Setenv("EROMEDL_OUTPUT_DIR", "/tmp/albums")
	t.Setenv("EROMEDL_QUEUE_FILE", "/tmp/queue.txt")
	t.Setenv("EROMEDL_MAX_CONNECTIONS", "3")
	t.Setenv("EROMEDL_SKIP_VIDEOS", "true")
	t.Setenv("EROMEDL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "127.0.0.1", cfg.Site.Host)
	assert.Equal(t, "/tmp/albums", cfg.Output.BaseDirectory)
	assert.Equal(t, "/tmp/queue.txt", cfg.Output.QueueFile)
	assert.Equal(t, 3, cfg.Download.MaxConnections)
	assert.True(t, cfg.Download.SkipVideos)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("EROMEDL_MAX_CONNECTIONS", "many")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONNECTIONS")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
site:
  host: albums.example.test
output:
  base_directory: /data/albums
download:
  max_connections: 2
  skip_images: true
retry:
  max_attempts: 3
  min_delay: 2s
  max_delay: 4s
pacing:
  cooldown_min: 1m
  cooldown_max: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "albums.example.test", cfg.Site.Host)
	assert.Equal(t, "/data/albums", cfg.Output.BaseDirectory)
	assert.Equal(t, 2, cfg.Download.MaxConnections)
	assert.True(t, cfg.Download.SkipImages)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.MinDelay)
	assert.Equal(t, time.Minute, cfg.Pacing.CooldownMin)

	// Untouched values keep their defaults
	assert.Equal(t, "url.txt", cfg.Output.QueueFile)
	assert.Equal(t, int64(50), cfg.Download.SizeTolerance)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("site: [unterminated"), 0644))
	err = cfg.LoadFromFile(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty host", func(c *Config) { c.Site.Host = "" }, "site host is required"},
		{"zero connections", func(c *Config) { c.Download.MaxConnections = 0 }, "max connections must be positive"},
		{"zero chunk", func(c *Config) { c.Download.ChunkSize = 0 }, "chunk size must be positive"},
		{"negative tolerance", func(c *Config) { c.Download.SizeTolerance = -1 }, "size tolerance cannot be negative"},
		{"skip everything", func(c *Config) {
			c.Download.SkipVideos = true
			c.Download.SkipImages = true
		}, "nothing to download"},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry attempts must be positive"},
		{"inverted delay", func(c *Config) {
			c.Pacing.FileDelayMin = 5 * time.Second
			c.Pacing.FileDelayMax = time.Second
		}, "file delay minimum"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"zero delays allowed", func(c *Config) {
			c.Pacing = PacingConfig{}
			c.Retry.MinDelay = 0
			c.Retry.MaxDelay = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":          "/out",
		"queue":           "/out/queue.txt",
		"max-connections": 7,
		"skip-videos":     true,
		"parallel":        true,
		"log-level":       "warn",
	})

	assert.Equal(t, "/out", cfg.Output.BaseDirectory)
	assert.Equal(t, "/out/queue.txt", cfg.Output.QueueFile)
	assert.Equal(t, 7, cfg.Download.MaxConnections)
	assert.True(t, cfg.Download.SkipVideos)
	assert.True(t, cfg.Download.Parallel)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Missing keys leave values alone
	cfg.MergeCommandLineFlags(map[string]interface{}{})
	assert.Equal(t, 7, cfg.Download.MaxConnections)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download:\n  max_connections: 2\nlogging:\n  level: warn\n"), 0644))

	t.Setenv("EROMEDL_MAX_CONNECTIONS", "4")

	cfg, err := Load(path, map[string]interface{}{"log-level": "error"})
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Download.MaxConnections, "env overrides file")
	assert.Equal(t, "error", cfg.Logging.Level, "flags override file")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Download.MaxConnections = 9
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, 9, decoded.Download.MaxConnections)
	assert.Equal(t, cfg.Pacing.CooldownMax, decoded.Pacing.CooldownMax)
}
