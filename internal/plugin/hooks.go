// File: internal/plugin/hooks.go
package plugin

import (
	"context"
	"log/slog"
	"time"
)

// Hooks defines lifecycle callbacks for session commands.
// A BeforeCommand error aborts the command and is returned to the caller.
type Hooks interface {
	BeforeCommand(ctx context.Context, query string, args []any) error
	AfterCommand(ctx context.Context, query string, elapsed time.Duration, err error)
}

// Chain runs hooks in order. BeforeCommand stops at the first error;
// AfterCommand always reaches every hook.
func Chain(hooks ...Hooks) Hooks {
	return chain(hooks)
}

type chain []Hooks

func (c chain) BeforeCommand(ctx context.Context, query string, args []any) error {
	for _, h := range c {
		if err := h.BeforeCommand(ctx, query, args); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) AfterCommand(ctx context.Context, query string, elapsed time.Duration, err error) {
	for _, h := range c {
		h.AfterCommand(ctx, query, elapsed, err)
	}
}

// LogHooks logs every command at debug level.
func LogHooks(logger *slog.Logger) Hooks {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logHooks{logger: logger}
}

type logHooks struct {
	logger *slog.Logger
}

func (h logHooks) BeforeCommand(ctx context.Context, query string, args []any) error {
	h.logger.DebugContext(ctx, "command", slog.String("sql", query), slog.Int("args", len(args)))
	return nil
}

func (h logHooks) AfterCommand(ctx context.Context, query string, elapsed time.Duration, err error) {
	attrs := []any{slog.String("sql", query), slog.Duration("elapsed", elapsed)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger.DebugContext(ctx, "command done", attrs...)
}
