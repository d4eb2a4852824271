package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eromedl/pkg/config"
	"eromedl/pkg/queue"
	"eromedl/pkg/ui"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ui.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDumpFlagsOnlyChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "dump"}
	addDumpFlags(cmd)
	t.Cleanup(func() {
		skipVideos = false
		maxConnections = 5
	})

	require.NoError(t, cmd.Flags().Parse([]string{"--skip-videos", "--max-connections", "2"}))
	flags := dumpFlags(cmd)

	assert.Equal(t, map[string]interface{}{
		"skip-videos":     true,
		"max-connections": 2,
	}, flags)
}

func TestIsKnownCommand(t *testing.T) {
	assert.True(t, isKnownCommand("dump"))
	assert.True(t, isKnownCommand("queue"))
	assert.False(t, isKnownCommand("https://www.erome.com/a/x"))
}

func TestQueueAddAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "url.txt")

	_, err := execute(t, "queue", "add", "--queue", path,
		"https://www.erome.com/a/one", "https://www.erome.com/a/two", "https://www.erome.com/a/one")
	require.NoError(t, err)

	q, err := queue.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.erome.com/a/one", "https://www.erome.com/a/two"}, q.Pending())

	_, err = execute(t, "queue", "remove", "--queue", path, "https://www.erome.com/a/one")
	require.NoError(t, err)

	out, err := execute(t, "queue", "list", "--queue", path)
	require.NoError(t, err)
	assert.Contains(t, out, "https://www.erome.com/a/two")
	assert.NotContains(t, out, "/a/one")
}

func TestQueueAddRejectsForeignHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "url.txt")

	_, err := execute(t, "queue", "add", "--queue", path, "https://example.com/a/one")
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eromedl.yaml")

	_, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Download, cfg.Download)
	assert.Equal(t, config.DefaultConfig().Pacing, cfg.Pacing)

	// A second init refuses to overwrite
	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), path))
}

func TestLoadConfigKeepsConfiguredLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eromedl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))

	prev := configFile
	configFile = path
	t.Cleanup(func() { configFile = prev })

	cfg, err := loadConfig(&cobra.Command{Use: "dump"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// An explicit level from the config is not quietened on the console
	assert.Equal(t, "debug", consoleLogging(cfg.Logging, false).Level)
}

func TestLoadConfigLogLevelFlagWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eromedl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))

	prevFile, prevLevel, prevSet := configFile, logLevel, logLevelSet
	configFile = path
	t.Cleanup(func() { configFile, logLevel, logLevelSet = prevFile, prevLevel, prevSet })

	cmd := &cobra.Command{Use: "dump"}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--log-level", "warn"}))

	cfg, err := loadConfig(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestConsoleLogging(t *testing.T) {
	def := config.DefaultConfig().Logging

	assert.Equal(t, "error", consoleLogging(def, false).Level)
	assert.Equal(t, "info", consoleLogging(def, true).Level)

	toFile := def
	toFile.File = filepath.Join(t.TempDir(), "eromedl.log")
	assert.Equal(t, "info", consoleLogging(toFile, false).Level)
}
