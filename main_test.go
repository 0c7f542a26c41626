package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pikac/pkg/asm"
	"pikac/pkg/vm"
)

func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("expected output to contain %q, but it didn't.\nOutput:\n%s", expected, code)
	}
}

// cli runs the command line and returns the exit code and both streams.
func cli(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestApps(t *testing.T) {
	tests := []struct {
		app      string
		expected string
	}{
		{"primes", "2 3 5 7 11 13 17 19 23 29 31 37 41 43 47 \ncount 15\n"},
		{"sort", "[1,1,3,4,5,9]\n"},
		{"harmonic", "1 1_1/2 1_5/6 2_1/12 2_17/60 \n2.08333\n"},
		{"fault", "5\nRuntime error: integer divide by zero\n"},
	}
	for _, tt := range tests {
		t.Run(tt.app, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), tt.app+".asm")
			code, stdout, stderr := cli(t, "-in", filepath.Join("_papps", tt.app+".pika"), "-out", out, "-run")
			if code != 0 {
				t.Fatalf("exit %d\nstderr:\n%s", code, stderr)
			}
			if stdout != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, stdout)
			}
			if _, err := os.Stat(out); err != nil {
				t.Errorf("assembly not written: %v", err)
			}
		})
	}
}

func TestRunSavedAssembly(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sort.asm")
	if code, _, stderr := cli(t, "-in", "_papps/sort.pika", "-out", out); code != 0 {
		t.Fatalf("compile exit %d: %s", code, stderr)
	}

	text, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, string(text), "$$main")
	assertContains(t, string(text), "; call sort(xs)")

	code, stdout, stderr := cli(t, "-run-asm", out)
	if code != 0 {
		t.Fatalf("run exit %d: %s", code, stderr)
	}
	if stdout != "[1,1,3,4,5,9]\n" {
		t.Errorf("got %q", stdout)
	}

	// An .asm input is parsed, not compiled, and can be run directly.
	code, stdout, _ = cli(t, "-in", out, "-run")
	if code != 0 || stdout != "[1,1,3,4,5,9]\n" {
		t.Errorf("-in with assembly: exit %d, output %q", code, stdout)
	}
}

func TestListingAndStats(t *testing.T) {
	out := filepath.Join(t.TempDir(), "primes.asm")
	code, stdout, stderr := cli(t, "-in", "_papps/primes.pika", "-out", out, "-listing", "-stats", "-comments=false")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"Listing (", "$$main", "$$allocate", "Scratch Memory", "array-print", "Opcode Usage"} {
		assertContains(t, stdout, want)
	}

	text, _ := os.ReadFile(out)
	if strings.Contains(string(text), ";") {
		t.Error("-comments=false still wrote comments")
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"Nothing To Do", nil, "nothing to do"},
		{"Run Without Input", []string{"-run", "-max-steps", "5"}, "nothing to do"},
		{"Run And Run Asm", []string{"-in", "x.pika", "-run", "-run-asm", "x.asm"}, "not both"},
		{"Unknown Flag", []string{"-bogus"}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := cli(t, tt.args...)
			if code != 2 {
				t.Errorf("expected exit 2, got %d", code)
			}
			assertContains(t, stderr, tt.want)
		})
	}
}

func TestFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.pika")
	if err := os.WriteFile(bad, []byte("exec {\n  print y;\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	badAsm := filepath.Join(dir, "bad.asm")
	if err := os.WriteFile(badAsm, []byte("        Frobnicate\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"Semantic", []string{"-in", bad, "-out", filepath.Join(dir, "o.asm")}, []string{"compilation failed", "semantic error", "line 2: undeclared identifier y", "|> print y;"}},
		{"Missing Input", []string{"-in", filepath.Join(dir, "none.pika")}, []string{"failed to read input file"}},
		{"Bad Assembly", []string{"-run-asm", badAsm}, []string{"assembly failed"}},
		{"Step Limit", []string{"-in", "_papps/spin.pika", "-out", filepath.Join(dir, "spin.asm"), "-run", "-max-steps", "1000"}, []string{"run failed", "step limit exceeded", "level=ERROR", "machine fault"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := cli(t, tt.args...)
			if code != 1 {
				t.Errorf("expected exit 1, got %d\nstderr:\n%s", code, stderr)
			}
			for _, w := range tt.want {
				assertContains(t, stderr, w)
			}
		})
	}
}

func TestCoreSnapshot(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "spin.asm")
	core := filepath.Join(dir, "spin.core")
	code, _, _ := cli(t, "-in", "_papps/spin.pika", "-out", out, "-run", "-max-steps", "500", "-core", core)
	if code != 1 {
		t.Fatalf("expected the step limit to fail the run, got exit %d", code)
	}

	text, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := asm.Parse(string(text))
	if err != nil {
		t.Fatal(err)
	}
	m, err := vm.New(prog, vm.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.RestoreFromFile(core); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if m.Steps != 500 {
		t.Errorf("restored steps: expected 500, got %d", m.Steps)
	}
	if m.Halted {
		t.Error("restored machine should still be running")
	}
	// The restored machine carries on from where the run stopped.
	if err := m.RunFor(100); err != nil {
		t.Fatalf("RunFor after restore: %v", err)
	}
	if m.Steps != 600 {
		t.Errorf("steps after resume: expected 600, got %d", m.Steps)
	}
}

func TestLogging(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sort.asm")

	_, _, stderr := cli(t, "-in", "_papps/sort.pika", "-out", out, "-v")
	assertContains(t, stderr, "level=DEBUG msg=compiled")
	assertContains(t, stderr, "level=INFO msg=compiled")

	_, _, stderr = cli(t, "-in", "_papps/sort.pika", "-out", out, "-run", "-trace")
	assertContains(t, stderr, "level=TRACE msg=step pc=0")
	assertContains(t, stderr, "run complete")

	_, _, stderr = cli(t, "-in", "_papps/sort.pika", "-out", out, "-run")
	if strings.Contains(stderr, "TRACE") || strings.Contains(stderr, "DEBUG") {
		t.Errorf("default level leaked debug records:\n%s", stderr)
	}
}
