package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler sends each record to the console handler and to every sink.
// Sinks decide their own level, so a run log keeps debug records even when
// the console shows only warnings.
type teeHandler struct {
	console slog.Handler
	sinks   []slog.Handler
}

// TeeLogger duplicates base's output into sinks. Nil sinks are ignored; with
// none left base's handler is used as is.
func TeeLogger(base *slog.Logger, sinks ...slog.Handler) *slog.Logger {
	var console slog.Handler = NoopHandler{}
	if base != nil {
		console = base.Handler()
	}
	kept := make([]slog.Handler, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	if len(kept) == 0 {
		return slog.New(console)
	}
	return slog.New(&teeHandler{console: console, sinks: kept})
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.console.Enabled(ctx, level) {
		return true
	}
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	if h.console.Enabled(ctx, record.Level) {
		errs = append(errs, h.console.Handle(ctx, record.Clone()))
	}
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, record.Level) {
			errs = append(errs, sink.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) *teeHandler {
	next := &teeHandler{console: fn(h.console), sinks: make([]slog.Handler, len(h.sinks))}
	for i, sink := range h.sinks {
		next.sinks[i] = fn(sink)
	}
	return next
}
