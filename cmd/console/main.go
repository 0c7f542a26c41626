// Command console runs a Pika program in the terminal and checkpoints the
// machine periodically, so an interrupted run can be resumed.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/tebeka/atexit"

	"pikac/pkg/codegen"
	"pikac/pkg/compiler"
	"pikac/pkg/utils"
	"pikac/pkg/vm"
)

// sliceSteps is how many instructions run between checkpoint checks.
const sliceSteps = 100_000

// errInterrupted reports a run stopped by ctx with its state checkpointed.
var errInterrupted = errors.New("interrupted")

// runWithCheckpoints runs m until it halts, snapshotting it to path every
// interval. A clean halt removes the checkpoint; a fault or cancellation
// leaves the latest state there.
func runWithCheckpoints(ctx context.Context, m *vm.Machine, path string, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	save := func() error {
		if err := m.SnapshotToFile(path); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
		logger.Debug("checkpoint written", "path", path, "steps", m.Steps)
		return nil
	}

	for !m.Halted {
		if err := m.RunFor(sliceSteps); err != nil {
			return errors.Join(err, save())
		}
		select {
		case <-ticker.C:
			if err := save(); err != nil {
				return err
			}
		case <-ctx.Done():
			if err := save(); err != nil {
				return err
			}
			return errInterrupted
		default:
		}
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	checkpoint := flag.String("checkpoint", "", "checkpoint file (default: program with .core extension)")
	every := flag.Duration("every", 3*time.Second, "checkpoint interval")
	resume := flag.Bool("resume", false, "continue from the checkpoint file if it exists")
	maxSteps := flag.Int("max-steps", 0, "stop after this many instructions (0: no limit)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := utils.NewLogger(os.Stderr, *verbose, false)
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] <program.pika>")
		flag.PrintDefaults()
		atexit.Exit(2)
	}

	fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		logger.Error("bad path", "err", err)
		atexit.Exit(1)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		logger.Error("failed to read source file", "err", err)
		atexit.Exit(1)
	}
	res, err := compiler.Compile(string(source), codegen.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
		atexit.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { out.Flush() })

	cfg := vm.DefaultConfig()
	cfg.Output = out
	cfg.MaxSteps = *maxSteps
	m, err := vm.New(res.Code, cfg)
	if err != nil {
		logger.Error("load failed", "err", err)
		atexit.Exit(1)
	}

	path := *checkpoint
	if path == "" {
		path = utils.OutputPath(fullPath, ".core")
	}
	if *resume {
		switch err := m.RestoreFromFile(path); {
		case err == nil:
			logger.Info("resumed", "path", path, "steps", m.Steps)
		case errors.Is(err, os.ErrNotExist):
			logger.Info("no checkpoint, starting fresh", "path", path)
		default:
			logger.Error("restore failed", "path", path, "err", err)
			atexit.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = runWithCheckpoints(ctx, m, path, *every, logger)
	switch {
	case errors.Is(err, errInterrupted):
		logger.Info("interrupted; resume with -resume", "path", path, "steps", m.Steps)
		atexit.Exit(130)
	case err != nil:
		out.Flush()
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		atexit.Exit(1)
	}
	logger.Debug("run complete", "steps", m.Steps)
	atexit.Exit(0)
}
