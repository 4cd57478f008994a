// Package disasm prints a Chunk's instructions as human-readable text, in
// an offset/line/mnemonic/operand layout. It is an external debugging
// collaborator: the compiler and VM never call into it except when a debug
// flag asks for a trace.
package disasm

import (
	"fmt"
	"strings"

	"wisp/bytecode"
	"wisp/object"
)

// Disassemble renders every instruction in chunk under a "== name =="
// header, one line per instruction.
func Disassemble(chunk *bytecode.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = disassembleInstruction(&b, chunk, offset)
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset (with no
// "== name ==" header), for the VM's optional per-step execution trace.
func DisassembleInstruction(chunk *bytecode.Chunk, offset int) (string, int) {
	var b strings.Builder
	next := disassembleInstruction(&b, chunk, offset)
	return b.String(), next
}

// disassembleInstruction prints the single instruction at offset and
// returns the offset of the next one.
func disassembleInstruction(b *strings.Builder, chunk *bytecode.Chunk, offset int) int {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", chunk.Lines[offset])
	}

	op := bytecode.Opcode(chunk.Code[offset])
	switch op {
	case bytecode.OpConstant, bytecode.OpDefineGlobal, bytecode.OpGetGlobal, bytecode.OpSetGlobal:
		return constantInstruction(b, op, chunk, offset)
	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpCall:
		return byteInstruction(b, op, chunk, offset)
	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		return jumpInstruction(b, op, chunk, offset, 1)
	case bytecode.OpLoop:
		return jumpInstruction(b, op, chunk, offset, -1)
	default:
		return simpleInstruction(b, op, offset)
	}
}

func simpleInstruction(b *strings.Builder, op bytecode.Opcode, offset int) int {
	fmt.Fprintf(b, "%s\n", op)
	return offset + 1
}

func byteInstruction(b *strings.Builder, op bytecode.Opcode, chunk *bytecode.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(b *strings.Builder, op bytecode.Opcode, chunk *bytecode.Chunk, offset int, sign int) int {
	jump := int(chunk.ReadUint16(offset + 1))
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func constantInstruction(b *strings.Builder, op bytecode.Opcode, chunk *bytecode.Chunk, offset int) int {
	index := chunk.Code[offset+1]
	value := chunk.Constants[index]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, index, formatConstant(value))
	return offset + 2
}

func formatConstant(value any) string {
	if v, ok := value.(object.Value); ok {
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}
