//go:build !js

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"pikac/pkg/asm"
	"pikac/pkg/codegen"
	"pikac/pkg/compiler"
	"pikac/pkg/utils"
	"pikac/pkg/vm"
)

func main() {
	stdout := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { stdout.Flush() })
	atexit.Exit(run(os.Args[1:], stdout, os.Stderr))
}

// run is the whole CLI; it returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pikac", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "", "input file: Pika source, or assembly when it ends in .asm")
	outPath := fs.String("out", "", "output assembly file path (default: input with .asm extension)")
	runProgram := fs.Bool("run", false, "run the compiled program on the virtual machine")
	runAsmPath := fs.String("run-asm", "", "run an existing assembly file on the virtual machine")
	listing := fs.Bool("listing", false, "print the instruction listing and scratch memory map")
	stats := fs.Bool("stats", false, "print opcode usage counts")
	comments := fs.Bool("comments", true, "annotate generated assembly with source statements")
	maxSteps := fs.Int("max-steps", 0, "stop a run after this many instructions (0: no limit)")
	corePath := fs.String("core", "", "write a machine snapshot here when the run ends")
	verbose := fs.Bool("v", false, "debug logging")
	trace := fs.Bool("trace", false, "log every executed instruction")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := utils.NewLogger(stderr, *verbose, *trace)

	if *runProgram && *runAsmPath != "" {
		fmt.Fprintln(stderr, "use either -run or -run-asm, not both")
		return 2
	}
	if *inPath == "" && *runAsmPath == "" {
		fmt.Fprintln(stderr, "nothing to do: provide -in to compile, -run to run the result, or -run-asm <file> to run saved assembly")
		fs.Usage()
		return 2
	}
	if *runProgram && *inPath == "" {
		fmt.Fprintln(stderr, "-run requires -in, or use -run-asm <file>")
		return 2
	}

	var code []asm.Instruction
	if *inPath != "" {
		var err error
		code, err = build(*inPath, *outPath, codegen.Options{Comments: *comments}, logger)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if *runAsmPath != "" {
		var err error
		code, err = loadAssembly(*runAsmPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	if *listing {
		fmt.Fprintln(stdout, utils.ListingTable(code))
		fmt.Fprintln(stdout, utils.ScratchTable())
	}
	if *stats {
		fmt.Fprintln(stdout, utils.OpcodeTable(code))
	}

	if !*runProgram && *runAsmPath == "" {
		return 0
	}
	cfg := vm.DefaultConfig()
	cfg.MaxSteps = *maxSteps
	cfg.Output = stdout
	if err := execute(code, cfg, *corePath, logger); err != nil {
		fmt.Fprintf(stderr, "run failed: %v\n", err)
		return 1
	}
	return 0
}

// build compiles or parses inPath. Compiled Pika is also written out as
// assembly text.
func build(inPath, outPath string, opts codegen.Options, logger *slog.Logger) ([]asm.Instruction, error) {
	if utils.IsAssembly(inPath) {
		return loadAssembly(inPath)
	}

	fullPath, _, err := utils.GetPathInfo(inPath)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %q: %w", inPath, err)
	}

	res, err := compiler.Compile(string(source), opts)
	if err != nil {
		return nil, fmt.Errorf("compilation failed: %w", err)
	}
	logger.Debug("compiled", "file", fullPath, "tokens", len(res.Tokens), "functions", len(res.Program.Functions), "globals", res.Program.GlobalSize)

	if outPath == "" {
		outPath = utils.OutputPath(inPath, ".asm")
	}
	if err := os.WriteFile(outPath, []byte(asm.Format(res.Code)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write assembly file %q: %w", outPath, err)
	}
	logger.Info("compiled", "instructions", len(res.Code), "out", outPath)
	return res.Code, nil
}

func loadAssembly(path string) ([]asm.Instruction, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assembly file %q: %w", path, err)
	}
	code, err := asm.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("assembly failed: %w", err)
	}
	return code, nil
}

// execute runs code to completion. When corePath is set the final machine
// state is saved there, whether or not the run succeeded.
func execute(code []asm.Instruction, cfg vm.Config, corePath string, logger *slog.Logger) error {
	m, err := vm.New(code, cfg)
	if err != nil {
		return err
	}
	m.Trace = utils.Tracer(logger)

	runErr := m.Run()
	var vmErr *vm.Error
	if errors.As(runErr, &vmErr) {
		logger.Error("machine fault", "pc", vmErr.PC, "instr", vmErr.Instr.String(), "line", vmErr.Instr.Line)
	}
	logger.Debug("run complete", "steps", m.Steps, "pc", m.PC, "stack", len(m.Stack), "halted", m.Halted)

	if corePath != "" {
		if err := m.SnapshotToFile(corePath); err != nil {
			return errors.Join(runErr, fmt.Errorf("write core: %w", err))
		}
		logger.Info("core written", "path", corePath)
	}
	return runErr
}
