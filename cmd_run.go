package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"wisp/compiler"
	"wisp/object"
	"wisp/vm"
)

// Exit codes follow sysexits.h, the convention the language's own
// command-line driver is specified against: a usage mistake, a problem
// with the input program, and an internal failure are distinguishable by
// their exit status alone.
const (
	exitUsage   subcommands.ExitStatus = 64
	exitDataErr subcommands.ExitStatus = 65
	exitSoftware subcommands.ExitStatus = 70
)

// runCmd executes a source file to completion.
type runCmd struct {
	debug bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile and execute a source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.debug, "debug", false, "print each compiled chunk and execution step to stdout")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: wisp run <file>")
		return exitUsage
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		return exitSoftware
	}

	registry := object.NewRegistry()
	machine := vm.New(registry, r.debug)
	if err := machine.Interpret(string(data)); err != nil {
		return reportInterpretError(err)
	}
	return subcommands.ExitSuccess
}

// reportInterpretError prints the appropriate diagnostic for a failed
// Interpret call and returns the exit status matching its kind.
func reportInterpretError(err error) subcommands.ExitStatus {
	var compileErr compiler.CompileError
	if ce, ok := err.(compiler.CompileError); ok {
		compileErr = ce
		for _, m := range compileErr.Messages {
			fmt.Fprintln(os.Stderr, m)
		}
		return exitDataErr
	}

	fmt.Fprintln(os.Stderr, err.Error())
	return exitSoftware
}
