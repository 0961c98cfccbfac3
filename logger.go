package proxgraph

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with proxgraph-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithFamily adds the graph family field to the logger.
func (l *Logger) WithFamily(f Family) *Logger {
	return &Logger{
		Logger: l.Logger.With("family", f.String()),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id uint32, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"dimension", dimension,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "insert completed",
		"id", id,
		"dimension", dimension,
	)
}

// LogBatchInsert logs a batch insert operation.
func (l *Logger) LogBatchInsert(ctx context.Context, count, failed int, duration time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch insert completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
			"duration", duration,
		)
		return
	}
	l.InfoContext(ctx, "batch insert completed",
		"count", count,
		"duration", duration,
	)
}

// LogBatchProgress logs the progress of a long batch insert.
func (l *Logger) LogBatchProgress(ctx context.Context, done, total int) {
	l.InfoContext(ctx, "batch insert progress",
		"done", done,
		"total", total,
	)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound, expansions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"k", k,
		"results", resultsFound,
		"expansions", expansions,
	)
}

// LogRefine logs a refinement run.
func (l *Logger) LogRefine(ctx context.Context, nodes int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "refine failed",
			"nodes", nodes,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "refine completed",
		"nodes", nodes,
		"duration", duration,
	)
}
