package services

import "context"

type contextKey string

const (
	imageIDKey contextKey = "image_id"
	stageKey   contextKey = "stage"
	runIDKey   contextKey = "run_id"
)

// WithImageID annotates context with the catalog image identifier.
func WithImageID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, imageIDKey, id)
}

// ImageIDFromContext extracts the catalog image identifier if present.
func ImageIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(imageIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the stage name (scan, review).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
