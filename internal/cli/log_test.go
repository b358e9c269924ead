package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gideonchrapko/template-builder/pkg/observability"
)

var (
	timestampRE = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)
	runIDRE     = regexp.MustCompile(`run_id=[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
)

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Info("compiled template", "family", "event-poster")
	logger.Debug("cache miss", "type", "markup")

	out := buf.String()
	if !timestampRE.MatchString(out) {
		t.Errorf("missing HH:MM:SS.ms timestamp: %q", out)
	}
	if !strings.Contains(out, "family=event-poster") {
		t.Errorf("missing key/value pair: %q", out)
	}
	if strings.Contains(out, "cache miss") {
		t.Errorf("debug line written at info level: %q", out)
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("compile finished", "variants", 3, "dir", "dist")

	out := buf.String()
	for _, want := range []string{"compile finished", "variants=3", "dir=dist", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("without a logger, loggerFromContext should return log.Default()")
	}

	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	if got := loggerFromContext(withLogger(context.Background(), logger)); got != logger {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestCompileLogsRunID(t *testing.T) {
	isolate(t)
	var buf bytes.Buffer
	out := filepath.Join(t.TempDir(), "poster.html")

	if err := runWith(t, New(&buf, LogInfo), "compile", "event-poster", "-V", "full", "-o", out); err != nil {
		t.Fatalf("compile: %v", err)
	}

	logs := buf.String()
	for _, want := range []string{"loaded template", "compiled template", "variant=full", "compile finished"} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %q:\n%s", want, logs)
		}
	}
	if n := len(runIDRE.FindAllString(logs, -1)); n < 3 {
		t.Errorf("found %d run_id fields, want one per runner and command line:\n%s", n, logs)
	}
	if strings.Contains(logs, "cache miss") {
		t.Errorf("hook events logged at info level:\n%s", logs)
	}
}

func TestVerboseLogsHookEvents(t *testing.T) {
	t.Cleanup(observability.Reset)
	isolate(t)

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.SetLogLevel(LogDebug)

	out := filepath.Join(t.TempDir(), "poster.html")
	for range 2 {
		if err := runWith(t, c, "compile", "event-poster", "-o", out); err != nil {
			t.Fatalf("compile: %v", err)
		}
	}

	logs := buf.String()
	for _, want := range []string{"load start", "compile complete", "cache miss", "cache set", "cache hit", "type=markup"} {
		if !strings.Contains(logs, want) {
			t.Errorf("debug logs missing %q:\n%s", want, logs)
		}
	}

	c.SetLogLevel(LogInfo)
	if _, ok := observability.Pipeline().(observability.NoopPipelineHooks); !ok {
		t.Errorf("pipeline hooks = %T after leaving debug level, want no-op", observability.Pipeline())
	}
	if _, ok := observability.Cache().(observability.NoopCacheHooks); !ok {
		t.Errorf("cache hooks = %T after leaving debug level, want no-op", observability.Cache())
	}
}
