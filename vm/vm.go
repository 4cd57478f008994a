// Package vm is the stack-based virtual machine: it executes a compiled
// Function's bytecode frame by frame, one call frame per active function
// call, over a shared operand stack and a table of globals.
package vm

import (
	"fmt"
	"io"
	"os"

	"wisp/bytecode"
	"wisp/compiler"
	"wisp/disasm"
	"wisp/object"
)

const maxFrames = 64
const stackMax = maxFrames * 256

// callFrame tracks one in-progress function call: which function is
// running, where its instruction pointer is, and where its locals begin on
// the shared operand stack.
type callFrame struct {
	function *object.Function
	ip       int
	slots    int
}

// VM is the runtime environment bytecode executes in: the call-frame
// stack, the single shared operand stack, the globals table, and the
// object registry it shares with the compiler that produced the bytecode.
type VM struct {
	frames     [maxFrames]callFrame
	frameCount int

	stack    stack
	globals  map[string]object.Value
	registry *object.Registry

	debug  bool
	Stdout io.Writer
}

// New creates a VM with its globals table and native functions installed.
// The VM uses the object.Registry it is given, and passes that same
// registry to the compiler on every Interpret call.
func New(registry *object.Registry, debug bool) *VM {
	vm := &VM{
		stack:    make(stack, 0, stackMax),
		globals:  make(map[string]object.Value),
		registry: registry,
		debug:    debug,
		Stdout:   os.Stdout,
	}
	vm.defineNatives()
	return vm
}

// Interpret compiles source and runs it to completion. A compile-time
// failure is returned as a compiler.CompileError; a runtime failure as a
// *RuntimeError. Either leaves the VM's globals as they stood at the point
// of failure — interpreting a script never rolls back side effects already
// performed.
func (vm *VM) Interpret(source string) error {
	fn, err := compiler.Compile(source, vm.registry, vm.debug)
	if err != nil {
		return err
	}

	vm.stack = vm.stack[:0]
	vm.frameCount = 0

	vm.stack.push(object.FromObj(fn))
	if err := vm.callFunction(fn, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) callFunction(fn *object.Function, argCount int) error {
	if argCount != fn.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argCount)
	}
	if vm.frameCount == maxFrames {
		return vm.runtimeError("Stack overflow.")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.function = fn
	frame.ip = 0
	frame.slots = len(vm.stack) - argCount - 1
	return nil
}

func (vm *VM) callValue(callee object.Value, argCount int) error {
	if callee.IsFunction() {
		return vm.callFunction(callee.AsFunction(), argCount)
	}
	if callee.IsNative() {
		native := callee.AsNative()
		args := make([]object.Value, argCount)
		copy(args, vm.stack[len(vm.stack)-argCount:])

		result, err := native.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.stack.push(result)
		return nil
	}
	return vm.runtimeError("Can only call functions and classes.")
}

// run is the fetch-decode-execute loop. It always resumes at the
// innermost active call frame, and refreshes its local frame pointer any
// time OP_CALL or OP_RETURN changes which frame is innermost.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readUint16 := func() uint16 {
		v := frame.function.Chunk.ReadUint16(frame.ip)
		frame.ip += 2
		return v
	}
	readConstant := func() object.Value {
		return frame.function.Chunk.Constants[readByte()].(object.Value)
	}

	for {
		if vm.debug {
			vm.traceStep(frame)
		}

		op := bytecode.Opcode(readByte())
		switch op {
		case bytecode.OpConstant:
			vm.stack.push(readConstant())

		case bytecode.OpNil:
			vm.stack.push(object.Nil())
		case bytecode.OpTrue:
			vm.stack.push(object.Bool(true))
		case bytecode.OpFalse:
			vm.stack.push(object.Bool(false))
		case bytecode.OpPop:
			vm.stack.pop()

		case bytecode.OpGetLocal:
			slot := readByte()
			vm.stack.push(vm.stack[frame.slots+int(slot)])
		case bytecode.OpSetLocal:
			slot := readByte()
			vm.stack[frame.slots+int(slot)] = vm.stack.peek(0)

		case bytecode.OpGetGlobal:
			name := readConstant().AsString()
			value, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.stack.push(value)
		case bytecode.OpDefineGlobal:
			name := readConstant().AsString()
			vm.globals[name] = vm.stack.peek(0)
			vm.stack.pop()
		case bytecode.OpSetGlobal:
			name := readConstant().AsString()
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.stack.peek(0)

		case bytecode.OpEqual:
			b := vm.stack.pop()
			a := vm.stack.pop()
			vm.stack.push(object.Bool(object.Equal(a, b)))
		case bytecode.OpGreater:
			if err := vm.numericBinaryOp(func(a, b float64) object.Value { return object.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.numericBinaryOp(func(a, b float64) object.Value { return object.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.numericBinaryOp(func(a, b float64) object.Value { return object.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.numericBinaryOp(func(a, b float64) object.Value { return object.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.numericBinaryOp(func(a, b float64) object.Value { return object.Number(a / b) }); err != nil {
				return err
			}

		case bytecode.OpNot:
			vm.stack.push(object.Bool(object.IsFalsey(vm.stack.pop())))
		case bytecode.OpNegate:
			if !vm.stack.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.stack.push(object.Number(-vm.stack.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.Stdout, vm.stack.pop().String())

		case bytecode.OpJump:
			offset := readUint16()
			frame.ip += int(offset)
		case bytecode.OpJumpIfFalse:
			offset := readUint16()
			if object.IsFalsey(vm.stack.peek(0)) {
				frame.ip += int(offset)
			}
		case bytecode.OpLoop:
			offset := readUint16()
			frame.ip -= int(offset)

		case bytecode.OpCall:
			argCount := int(readByte())
			callee := vm.stack.peek(argCount)
			if err := vm.callValue(callee, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpReturn:
			result := vm.stack.pop()
			calleeSlots := frame.slots
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.stack.pop()
				return nil
			}
			vm.stack = vm.stack[:calleeSlots]
			vm.stack.push(result)
			frame = &vm.frames[vm.frameCount-1]

		default:
			return vm.runtimeError("Unknown opcode %v.", op)
		}
	}
}

func (vm *VM) add() error {
	if vm.stack.peek(0).IsString() && vm.stack.peek(1).IsString() {
		b := vm.stack.pop().AsString()
		a := vm.stack.pop().AsString()
		vm.stack.push(object.FromObj(vm.registry.Intern(a + b)))
		return nil
	}
	if vm.stack.peek(0).IsNumber() && vm.stack.peek(1).IsNumber() {
		b := vm.stack.pop().AsNumber()
		a := vm.stack.pop().AsNumber()
		vm.stack.push(object.Number(a + b))
		return nil
	}
	return vm.runtimeError("Operands must be two numbers or two strings.")
}

func (vm *VM) numericBinaryOp(op func(a, b float64) object.Value) error {
	if !vm.stack.peek(0).IsNumber() || !vm.stack.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.stack.pop().AsNumber()
	a := vm.stack.pop().AsNumber()
	vm.stack.push(op(a, b))
	return nil
}

func (vm *VM) traceStep(frame *callFrame) {
	fmt.Fprint(os.Stdout, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(os.Stdout, "[ %s ]", v.String())
	}
	fmt.Fprintln(os.Stdout)
	line, _ := disasm.DisassembleInstruction(frame.function.Chunk, frame.ip)
	fmt.Fprint(os.Stdout, line)
}
