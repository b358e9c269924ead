// Package cli implements the postergen command-line interface.
//
// The commands wrap the pipeline runner: they resolve a template argument
// (a file path or a family name in the configured store), build compile
// options from flags and data files, and write the resulting HTML. The CLI
// is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - compile: Compile a template variant (or all variants) to HTML
//   - validate: Report structural problems in a template
//   - list, variants: Inspect the template store
//   - outline: Draw a template's node tree with Graphviz
//   - push: Upload template files to the MongoDB store
//   - cache: Manage the markup and template cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs pipeline and cache events. Loggers are passed through
// context.Context.
//
// # Configuration
//
// Settings come from $XDG_CONFIG_HOME/postergen/config.toml. Flags
// override the file and POSTERGEN_* environment variables override both.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gideonchrapko/template-builder/pkg/observability"
)

// newLogger returns the CLI logger. Timestamps read like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// setHooks routes pipeline and cache events to l at debug level and
// restores the no-op hooks otherwise.
func setHooks(l *log.Logger, level log.Level) {
	if level > log.DebugLevel {
		observability.Reset()
		return
	}
	hooks := observability.NewLogHooks(l)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
}

// progress times one command.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time in milliseconds.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
