package services

import "context"

type contextKey string

const (
	managerKey contextKey = "manager"
	stageKey   contextKey = "stage"
	runIDKey   contextKey = "run_id"
)

// WithManager annotates context with the update manager name.
func WithManager(ctx context.Context, manager string) context.Context {
	if manager == "" {
		return ctx
	}
	return context.WithValue(ctx, managerKey, manager)
}

// ManagerFromContext returns the update manager name if present.
func ManagerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(managerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
