package logging

import (
	"context"
	"log/slog"
)

// minLevelHandler drops records below min before they reach next. next is
// built at the most verbose level any component asks for.
type minLevelHandler struct {
	next slog.Handler
	min  slog.Level
}

func withMinLevel(next slog.Handler, min slog.Level) slog.Handler {
	return &minLevelHandler{next: next, min: min}
}

func (h *minLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.next.Enabled(ctx, level)
}

func (h *minLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.min {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevelHandler{next: h.next.WithAttrs(attrs), min: h.min}
}

func (h *minLevelHandler) WithGroup(name string) slog.Handler {
	return &minLevelHandler{next: h.next.WithGroup(name), min: h.min}
}

// relevel replaces the console gate. Tee sinks stay ungated.
func relevel(h slog.Handler, level slog.Level) slog.Handler {
	switch v := h.(type) {
	case *minLevelHandler:
		return &minLevelHandler{next: v.next, min: level}
	case *teeHandler:
		return &teeHandler{console: relevel(v.console, level), sinks: v.sinks}
	default:
		return withMinLevel(h, level)
	}
}
