package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pikac/pkg/codegen"
	"pikac/pkg/compiler"
	"pikac/pkg/utils"
	"pikac/pkg/vm"
)

const countdown = `exec {
	var i := 200000;
	while (i > 0) { i := i - 1; }
	print "done";
}`

func machine(t *testing.T, src string, out io.Writer) *vm.Machine {
	t.Helper()
	res, err := compiler.Compile(src, codegen.Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	cfg := vm.DefaultConfig()
	cfg.Output = out
	m, err := vm.New(res.Code, cfg)
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	return m
}

var quiet = utils.NewLogger(io.Discard, false, false)

func TestCleanRunRemovesCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.core")
	var out bytes.Buffer
	m := machine(t, countdown, &out)
	if err := runWithCheckpoints(context.Background(), m, path, time.Nanosecond, quiet); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "done" {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("checkpoint left behind: %v", err)
	}
}

func TestInterruptedRunResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.core")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	m := machine(t, countdown, &out)
	err := runWithCheckpoints(ctx, m, path, time.Hour, quiet)
	if !errors.Is(err, errInterrupted) {
		t.Fatalf("expected interruption, got %v", err)
	}
	if m.Steps != sliceSteps {
		t.Errorf("steps before interrupt = %d, want %d", m.Steps, sliceSteps)
	}

	resumed := machine(t, countdown, &out)
	if err := resumed.RestoreFromFile(path); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if resumed.Steps != sliceSteps {
		t.Errorf("restored steps = %d", resumed.Steps)
	}
	if err := runWithCheckpoints(context.Background(), resumed, path, time.Hour, quiet); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if out.String() != "done" {
		t.Errorf("output = %q", out.String())
	}
}

func TestFaultKeepsCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.core")
	res, err := compiler.Compile(countdown, codegen.Options{})
	if err != nil {
		t.Fatal(err)
	}
	cfg := vm.DefaultConfig()
	cfg.Output = io.Discard
	cfg.MaxSteps = 1000
	m, err := vm.New(res.Code, cfg)
	if err != nil {
		t.Fatal(err)
	}

	err = runWithCheckpoints(context.Background(), m, path, time.Hour, quiet)
	if !errors.Is(err, vm.ErrStepLimit) {
		t.Fatalf("expected step limit, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("checkpoint missing after fault: %v", err)
	}
}
