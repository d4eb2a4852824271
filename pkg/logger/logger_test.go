package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"eromedl/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: level, JSON: true}, &buf)
	require.NoError(t, err)
	return l, &buf
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "eromedl.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newJSONLogger(t, "warn")

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, `"app":"eromedl"`)
}

func TestFieldChaining(t *testing.T) {
	l, buf := newJSONLogger(t, "debug")

	base := l.WithField("album", "https://www.erome.com/a/abc")
	base.WithFields(map[string]interface{}{
		"file":  "clip.mp4",
		"bytes": int64(2048),
	}).Info("saved")

	out := buf.String()
	assert.Contains(t, out, `"album":"https://www.erome.com/a/abc"`)
	assert.Contains(t, out, `"file":"clip.mp4"`)
	assert.Contains(t, out, `"bytes":2048`)

	// Parent is not mutated by children
	buf.Reset()
	base.Info("parent")
	assert.NotContains(t, buf.String(), "clip.mp4")
}

func TestWithError(t *testing.T) {
	l, buf := newJSONLogger(t, "debug")

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("fetch failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestFieldTypes(t *testing.T) {
	l, buf := newJSONLogger(t, "debug")

	l.InfoWithFields("typed", map[string]interface{}{
		"dur":    2 * time.Second,
		"ok":     true,
		"names":  []string{"a", "b"},
		"cause":  errors.New("boom"),
		"custom": struct{ N int }{N: 3},
	})

	out := buf.String()
	assert.Contains(t, out, `"ok":true`)
	assert.Contains(t, out, `"names":["a","b"]`)
	assert.Contains(t, out, `"cause":"boom"`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://www.erome.com/a/x", 200, time.Millisecond)
	LogRequest(tl, "GET", "https://www.erome.com/a/x", 503, time.Millisecond)
	LogDownload(tl, "album", "a.jpg", 10, true, nil)
	LogDownload(tl, "album", "b.jpg", 0, false, errors.New("eof"))
	LogStateTransition(tl, "album", "fetching", "downloading")

	assert.True(t, tl.HasMessage("HTTP request completed"))
	assert.True(t, tl.HasMessage("HTTP request server error"))
	assert.True(t, tl.HasMessage("Download skipped, file already present"))
	assert.True(t, tl.HasError())

	failed := tl.GetMessagesByLevel("ERROR")
	require.NotEmpty(t, failed)
	last := failed[len(failed)-1]
	assert.Equal(t, "Download failed", last.Message)
	assert.EqualError(t, last.Error, "eof")
	assert.Equal(t, "b.jpg", last.Fields["file"])
}

func TestTestLoggerSharedSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "queue")
	child.Info("loaded")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "queue", msgs[0].Fields["component"])

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
	assert.Empty(t, tl.String())
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	t.Cleanup(func() { SetLogger(NewNopLogger()) })

	Info("global info")
	WithField("k", "v").Warn("global warn")

	assert.Same(t, tl, GetLogger())
	assert.True(t, tl.HasMessage("global info"))
	assert.True(t, tl.HasMessage("global warn"))
}
