// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// gpuSetLogger forwards the logger to the GPU layer. It stays nil in
// nogpu builds.
var gpuSetLogger func(*slog.Logger)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for render2d and its GPU layer.
// By default render2d produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by render2d:
//   - [slog.LevelDebug]: pipeline creation, buffer growth, atlas uploads
//   - [slog.LevelInfo]: device adoption, renderer lifecycle
//   - [slog.LevelWarn]: submission timeouts, release anomalies
//
// Example:
//
//	render2d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	if gpuSetLogger != nil {
		gpuSetLogger(l)
	}
}

// Logger returns the current logger used by render2d.
// Sub-packages call this to share the same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
