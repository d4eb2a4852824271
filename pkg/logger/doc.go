// Package logger provides structured logging for the album downloader.
//
// It wraps zerolog behind a small Logger interface so components can be
// handed a logger explicitly, while the CLI keeps a process-wide instance:
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.WithField("album", url).Info("Album fetched")
//
// Components receive a Logger at construction time and derive children:
//
//	log := base.WithField("component", "downloader")
//	log.InfoWithFields("File saved", map[string]interface{}{
//	    "file": "clip.mp4",
//	    "bytes": 1048576,
//	})
//
// Tests use NewNopLogger, or NewTestLogger when they need to assert on
// what was logged.
package logger
