package pairci

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/pairci/hci"
)

// Logger wraps slog.Logger with pairci-specific helpers.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithIteration adds the macro-iteration number to the logger.
func (l *Logger) WithIteration(iter int) *Logger {
	return &Logger{
		Logger: l.Logger.With("iteration", iter),
	}
}

// WithShape adds the orbital basis and pair count to the logger.
func (l *Logger) WithShape(nbasis, nocc int) *Logger {
	return &Logger{
		Logger: l.Logger.With("nbasis", nbasis, "nocc", nocc),
	}
}

// WithEps adds the selection threshold to the logger.
func (l *Logger) WithEps(eps float64) *Logger {
	return &Logger{
		Logger: l.Logger.With("eps", eps),
	}
}

// LogHCIRound logs one heat-bath selection round.
func (l *Logger) LogHCIRound(ctx context.Context, r hci.Round) {
	l.DebugContext(ctx, "hci round completed",
		"round", r.Index,
		"references", r.References,
		"added", r.Added,
		"ndet", r.NDet,
		"elapsed", r.Elapsed,
	)
}

// LogBuild logs a sparse operator build.
func (l *Logger) LogBuild(ctx context.Context, rows, nnz int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "operator build failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "operator build completed",
			"rows", rows,
			"nnz", nnz,
			"elapsed", elapsed,
		)
	}
}

// LogSolve logs an eigensolve.
func (l *Logger) LogSolve(ctx context.Context, energies []float64, iterations int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "solve failed",
			"iterations", iterations,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "solve completed",
			"energies", energies,
			"iterations", iterations,
			"elapsed", elapsed,
		)
	}
}

// LogSnapshot logs a snapshot write.
func (l *Logger) LogSnapshot(ctx context.Context, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
			"bytes", bytes,
		)
	}
}
