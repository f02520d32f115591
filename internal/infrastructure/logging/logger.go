// Package logging provides structured logging infrastructure for the
// rentfall engine. It wraps Go's standard log/slog package with
// context-aware logging and domain-specific log attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// contextKey is used for storing logger-related values in context.
type contextKey string

const (
	// ExecutionIDKey is the context key for rule execution IDs.
	ExecutionIDKey contextKey = "execution_id"
	// RuleIDKey is the context key for rule IDs.
	RuleIDKey contextKey = "rule_id"
	// ActorKey is the context key for acting entity names.
	ActorKey contextKey = "actor"
	// DayKey is the context key for the in-game day counter.
	DayKey contextKey = "day"
	// TriggerKey is the context key for passive trigger names.
	TriggerKey contextKey = "trigger"
)

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     os.Stderr,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger with additional functionality for rentfall.
type Logger struct {
	slogger *slog.Logger
	level   slog.Level
	mu      sync.RWMutex
}

// global is the package-level default logger.
var (
	global     *Logger
	globalOnce sync.Once
)

// Init initializes the global logger with the provided configuration.
func Init(cfg Config) *Logger {
	globalOnce.Do(func() {
		global = New(cfg)
	})
	return global
}

// Default returns the global logger, initializing it with defaults if necessary.
func Default() *Logger {
	if global == nil {
		Init(DefaultConfig())
	}
	return global
}

// New creates a new Logger with the provided configuration.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize time format
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		slogger: slog.New(handler),
		level:   level,
	}
}

// parseLevel converts a Level to slog.Level.
func parseLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel dynamically changes the log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = parseLevel(level)
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slogger: l.slogger.With(args...),
		level:   l.level,
	}
}

// WithGroup returns a new Logger with the given group name.
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slogger: l.slogger.WithGroup(name),
		level:   l.level,
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// DebugContext logs at debug level with context.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// InfoContext logs at info level with context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// WarnContext logs at warn level with context.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// ErrorContext logs at error level with context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// enrichArgs extracts context values and adds them as log attributes.
func (l *Logger) enrichArgs(ctx context.Context, args []any) []any {
	enriched := make([]any, 0, len(args)+10)

	if v := ctx.Value(ExecutionIDKey); v != nil {
		enriched = append(enriched, "execution_id", v)
	}
	if v := ctx.Value(RuleIDKey); v != nil {
		enriched = append(enriched, "rule_id", v)
	}
	if v := ctx.Value(ActorKey); v != nil {
		enriched = append(enriched, "actor", v)
	}
	if v := ctx.Value(DayKey); v != nil {
		enriched = append(enriched, "day", v)
	}
	if v := ctx.Value(TriggerKey); v != nil {
		enriched = append(enriched, "trigger", v)
	}

	enriched = append(enriched, args...)
	return enriched
}

// Underlying returns the underlying slog.Logger.
func (l *Logger) Underlying() *slog.Logger {
	return l.slogger
}

// --- Context helpers ---

// WithExecutionID adds a rule execution ID to the context.
func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ExecutionIDKey, id)
}

// WithRuleID adds a rule ID to the context.
func WithRuleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RuleIDKey, id)
}

// WithActor adds an acting entity name to the context.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ActorKey, name)
}

// WithDay adds the in-game day to the context.
func WithDay(ctx context.Context, day int) context.Context {
	return context.WithValue(ctx, DayKey, day)
}

// WithTrigger adds a passive trigger name to the context.
func WithTrigger(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, TriggerKey, name)
}

// ExecutionID extracts the execution ID from context.
func ExecutionID(ctx context.Context) string {
	if v := ctx.Value(ExecutionIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// --- Domain-specific logging helpers ---

// LogRuleStart logs the start of a rule execution.
func LogRuleStart(ctx context.Context, logger *Logger, ruleID, actor string, day int) {
	logger.DebugContext(ctx, "rule execution started",
		"rule_id", ruleID,
		"actor", actor,
		"day", day,
	)
}

// LogRuleComplete logs a completed rule execution.
func LogRuleComplete(ctx context.Context, logger *Logger, ruleID string, effectCount int, hasErrors bool) {
	logger.InfoContext(ctx, "rule execution completed",
		"rule_id", ruleID,
		"effect_count", effectCount,
		"has_errors", hasErrors,
	)
}

// LogRuleRejected logs a rule execution stopped by validation.
func LogRuleRejected(ctx context.Context, logger *Logger, ruleID, reason string) {
	logger.DebugContext(ctx, "rule execution rejected",
		"rule_id", ruleID,
		"reason", reason,
	)
}

// LogEffectError logs a per-effect executor failure.
func LogEffectError(ctx context.Context, logger *Logger, ruleID string, effectIndex int, err error) {
	logger.WarnContext(ctx, "effect execution failed",
		"rule_id", ruleID,
		"effect_index", effectIndex,
		"error", err.Error(),
	)
}

// LogGroupComplete logs a completed group execution.
func LogGroupComplete(ctx context.Context, logger *Logger, group string, executed, total int) {
	logger.InfoContext(ctx, "rule group executed",
		"group", group,
		"executed", executed,
		"total", total,
	)
}
