package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	gamePathKey contextKey = "game_path"
	hashKey     contextKey = "hash"
	stageKey    contextKey = "stage"
)

// WithRunID annotates context with the identifier of the current run.
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

// WithGame annotates context with the game file being resolved and its content hash.
func WithGame(ctx context.Context, path, hash string) context.Context {
	if path != "" {
		ctx = context.WithValue(ctx, gamePathKey, path)
	}
	if hash != "" {
		ctx = context.WithValue(ctx, hashKey, hash)
	}
	return ctx
}

// GamePathFromContext returns the game file path if present.
func GamePathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(gamePathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// HashFromContext returns the content hash if present.
func HashFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(hashKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline state name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the pipeline state name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
