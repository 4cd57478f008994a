package vm

import (
	"fmt"
	"strings"
)

// RuntimeError is returned for any failure detected while executing
// bytecode: type errors, undefined variables, arity mismatches, stack
// overflow. Trace holds one "[line N] in <name>" entry per active call
// frame at the point of failure, innermost first.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, line := range e.Trace {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func (vm *VM) runtimeError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	trace := make([]string, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		line := 0
		if idx := f.ip - 1; idx >= 0 && idx < len(f.function.Chunk.Lines) {
			line = f.function.Chunk.Lines[idx]
		}
		name := "script"
		if f.function.Name != "" {
			name = f.function.Name + "()"
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}

	return &RuntimeError{Message: msg, Trace: trace}
}
