package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"wisp/compiler"
	"wisp/disasm"
	"wisp/object"
)

// disasmCmd compiles a source file and prints every function's bytecode,
// without running it: a reader never has to single-step the VM to see
// what a script compiled to.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "compile a source file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Compile a source file and print the disassembly of every function in it,
  without executing it.
`
}

func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: wisp disasm <file>")
		return exitUsage
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		return exitSoftware
	}

	registry := object.NewRegistry()
	fn, err := compiler.Compile(string(data), registry, false)
	if err != nil {
		if ce, ok := err.(compiler.CompileError); ok {
			for _, m := range ce.Messages {
				fmt.Fprintln(os.Stderr, m)
			}
			return exitDataErr
		}
		fmt.Fprintln(os.Stderr, err.Error())
		return exitSoftware
	}

	printDisassembly(os.Stdout, fn)
	return subcommands.ExitSuccess
}

// printDisassembly walks every nested function reachable through fn's
// constant pool, printing each chunk under its own header.
func printDisassembly(w io.Writer, fn *object.Function) {
	fmt.Fprint(w, disasm.Disassemble(fn.Chunk, fn.String()))
	for _, c := range fn.Chunk.Constants {
		if v, ok := c.(object.Value); ok && v.IsFunction() {
			printDisassembly(w, v.AsFunction())
		}
	}
}
