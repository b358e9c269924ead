package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to the default logger
// when nil. The result implements both PipelineHooks and CacheHooks.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnLoadStart(_ context.Context, family, backend string) {
	h.logger.Debug("load start", "family", family, "backend", backend)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, family, backend string, d time.Duration, err error) {
	h.logger.Debug("load complete", "family", family, "backend", backend, "duration", d, "err", err)
}

func (h *LogHooks) OnCompileStart(_ context.Context, family, variant string) {
	h.logger.Debug("compile start", "family", family, "variant", variant)
}

func (h *LogHooks) OnCompileComplete(_ context.Context, family, variant string, nodes int, d time.Duration, err error) {
	h.logger.Debug("compile complete", "family", family, "variant", variant, "nodes", nodes, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
)
