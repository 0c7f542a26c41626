package utils

import (
	"context"
	"io"
	"log/slog"

	"pikac/pkg/asm"
	"pikac/pkg/vm"
)

// LevelTrace sits below Debug and carries one record per executed
// instruction.
const LevelTrace slog.Level = slog.LevelDebug - 4

// NewLogger returns a text logger on w. trace wins over verbose.
func NewLogger(w io.Writer, verbose, trace bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case trace:
		level = LevelTrace
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}))
}

// Tracer returns a vm.Tracer logging every step at LevelTrace, or nil when
// the logger would drop those records.
func Tracer(logger *slog.Logger) vm.Tracer {
	ctx := context.Background()
	if !logger.Enabled(ctx, LevelTrace) {
		return nil
	}
	return func(pc int, in asm.Instruction, depth int) {
		logger.Log(ctx, LevelTrace, "step", "pc", pc, "instr", in.String(), "stack", depth)
	}
}
