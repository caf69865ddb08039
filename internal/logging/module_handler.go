package logging

import (
	"context"
	"log/slog"
	"sync"
)

// handlerCell holds the current handler chain for one module logger.
// Module loggers are cached for the process lifetime, so reconfiguration
// swaps the chain inside the cell instead of recreating the logger.
type handlerCell struct {
	mu    sync.RWMutex
	inner slog.Handler
}

func (c *handlerCell) swap(h slog.Handler) {
	c.mu.Lock()
	c.inner = h
	c.mu.Unlock()
}

func (c *handlerCell) current() slog.Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inner
}

// moduleHandler tags each record with its module name and routes it through
// whichever chain Initialize most recently installed in the cell. Loggers
// handed out before Initialize pick up the configured format and the full
// output chain without the caller noticing.
type moduleHandler struct {
	module string
	cell   *handlerCell
	attrs  []slog.Attr
}

func (h *moduleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.cell.current().Enabled(ctx, level)
}

func (h *moduleHandler) Handle(ctx context.Context, r slog.Record) error {
	inner := h.cell.current()
	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}
	r = r.Clone()
	r.AddAttrs(slog.String("module", h.module))
	return inner.Handle(ctx, r)
}

func (h *moduleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &moduleHandler{module: h.module, cell: h.cell, attrs: merged}
}

// WithGroup pins the chain as of this call. No module logger opens groups
// today, so losing later swaps on the derived handler is acceptable.
func (h *moduleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	attrs := make([]slog.Attr, 0, len(h.attrs)+1)
	attrs = append(attrs, slog.String("module", h.module))
	attrs = append(attrs, h.attrs...)
	return h.cell.current().WithAttrs(attrs).WithGroup(name)
}
