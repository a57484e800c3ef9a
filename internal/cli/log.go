// Package cli implements the cratemod command-line interface.
//
// This package provides commands for adding and removing Cargo.toml
// dependencies and for managing the registry response cache. The CLI is
// built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - add: Add or update dependencies in a Cargo.toml
//   - rm: Remove dependencies and prune stale feature references
//   - cache: Manage the registry response cache
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/cratemod/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratemod/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// registerHooks routes library events to the CLI logger at debug level,
// keeping the library packages themselves log-free.
func registerHooks(l *log.Logger) {
	observability.SetManifestHooks(&logManifestHooks{logger: l})
	observability.SetCacheHooks(&logCacheHooks{logger: l})
	observability.SetHTTPHooks(&logHTTPHooks{logger: l})
}

type logManifestHooks struct {
	observability.NoopManifestHooks
	logger *log.Logger
}

func (h *logManifestHooks) OnParseComplete(_ context.Context, path string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("manifest parse failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("manifest parsed", "path", path, "took", d.Round(time.Millisecond))
}

func (h *logManifestHooks) OnWriteComplete(_ context.Context, path string, bytes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("manifest write failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("manifest written", "path", path, "bytes", bytes, "took", d.Round(time.Millisecond))
}

func (h *logManifestHooks) OnDependencyChange(_ context.Context, op, crate, section string) {
	h.logger.Debug("dependency change", "op", op, "crate", crate, "section", section)
}

type logCacheHooks struct {
	observability.NoopCacheHooks
	logger *log.Logger
}

func (h *logCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

type logHTTPHooks struct {
	observability.NoopHTTPHooks
	logger *log.Logger
}

func (h *logHTTPHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *logHTTPHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
