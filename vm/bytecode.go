package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

const (
	// OpPushFunc pushes a function address (64-bit absolute operand).
	OpPushFunc Opcode = 0x01
	// OpPushProto pushes a primitive reference (64-bit table index).
	OpPushProto Opcode = 0x02
	// OpPushInt pushes an inline signed 64-bit integer.
	OpPushInt Opcode = 0x03

	// OpPeek pushes a copy of the value `index` slots below the top
	// (32-bit operand, 0 = top of stack).
	OpPeek Opcode = 0x10
	// OpPop discards the top of the stack.
	OpPop Opcode = 0x11
	// OpCall pops the callee and dispatches to it (32-bit argument count).
	OpCall Opcode = 0x12

	// OpAdd pops two integers and pushes their sum.
	OpAdd Opcode = 0x20
	// OpReturn tears down the current frame (32-bit local depth,
	// 32-bit argument count) and pushes the return value for the caller.
	OpReturn Opcode = 0x21

	// OpJumpFalse pops the condition and jumps when it is falsy
	// (64-bit absolute address).
	OpJumpFalse Opcode = 0x30
	// OpJump jumps unconditionally (64-bit absolute address).
	OpJump Opcode = 0x31
	// OpHalt terminates execution.
	OpHalt Opcode = 0x32
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name         string // human-readable name
	OperandBytes int    // number of operand bytes following the opcode
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpPushFunc:  {"PUSH_FUNC", 8},
	OpPushProto: {"PUSH_PROTO", 8},
	OpPushInt:   {"PUSH_INT", 8},
	OpPeek:      {"PEEK", 4},
	OpPop:       {"POP", 0},
	OpCall:      {"CALL", 4},
	OpAdd:       {"ADD", 0},
	OpReturn:    {"RET", 8},
	OpJumpFalse: {"JUMP_FALSE", 8},
	OpJump:      {"JUMP", 8},
	OpHalt:      {"HALT", 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Label management
// ---------------------------------------------------------------------------

// Label is a symbolic stand-in for a code address that may not be known yet.
// Labels are opaque identifiers allocated monotonically by an Assembler and
// are distinct from the addresses they eventually bind to.
type Label uint32

// noLabel is the zero Label; valid labels start at 1.
const noLabel Label = 0

// ---------------------------------------------------------------------------
// Assembler: code buffer with label/fixup back-patching
// ---------------------------------------------------------------------------

// Assembler accumulates bytecode and resolves label references. A reference
// to a label that is already bound is emitted verbatim; a reference to an
// unbound label emits a placeholder and records a fixup, which is flushed
// the moment the label is bound. Each label's fixups are patched exactly
// once, so translation stays a single forward pass over the input.
type Assembler struct {
	code      []byte
	nextLabel Label
	addresses map[Label]uint64  // bound labels -> absolute offsets
	fixups    map[Label][]int   // unbound labels -> operand offsets to patch
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		code:      make([]byte, 0, 256),
		addresses: make(map[Label]uint64),
		fixups:    make(map[Label][]int),
	}
}

// Len returns the current end-of-buffer offset.
func (a *Assembler) Len() int {
	return len(a.code)
}

// Code returns the assembled bytes.
func (a *Assembler) Code() []byte {
	return a.code
}

// NewLabel allocates a fresh, never-reused label with no address.
func (a *Assembler) NewLabel() Label {
	a.nextLabel++
	return a.nextLabel
}

// Bind records the current end-of-buffer offset as the label's address and
// patches every fixup recorded against it. Binding a label twice is an
// internal consistency violation.
func (a *Assembler) Bind(label Label) {
	if label == noLabel {
		panic("Assembler.Bind: unallocated label")
	}
	if _, bound := a.addresses[label]; bound {
		panic(fmt.Sprintf("Assembler.Bind: label %d already bound", label))
	}
	addr := uint64(len(a.code))
	a.addresses[label] = addr
	for _, offset := range a.fixups[label] {
		binary.LittleEndian.PutUint64(a.code[offset:], addr)
	}
	delete(a.fixups, label)
}

// Reference emits the 8-byte operand for a label. Bound labels emit their
// address directly; unbound labels emit a placeholder and queue a fixup.
func (a *Assembler) Reference(label Label) {
	if label == noLabel {
		panic("Assembler.Reference: unallocated label")
	}
	if addr, bound := a.addresses[label]; bound {
		a.emitUint64(addr)
		return
	}
	a.fixups[label] = append(a.fixups[label], len(a.code))
	a.emitUint64(0)
}

// PendingFixups returns the number of unresolved forward references,
// which must be zero in a completely translated program.
func (a *Assembler) PendingFixups() int {
	n := 0
	for _, refs := range a.fixups {
		n += len(refs)
	}
	return n
}

// ---------------------------------------------------------------------------
// Instruction emission
// ---------------------------------------------------------------------------

// Emit appends an opcode with no operands.
func (a *Assembler) Emit(op Opcode) {
	a.code = append(a.code, byte(op))
}

// EmitPushFunc appends a PUSH_FUNC instruction referencing a label.
func (a *Assembler) EmitPushFunc(entry Label) {
	a.Emit(OpPushFunc)
	a.Reference(entry)
}

// EmitPushProto appends a PUSH_PROTO instruction with a primitive index.
func (a *Assembler) EmitPushProto(index uint64) {
	a.Emit(OpPushProto)
	a.emitUint64(index)
}

// EmitPushInt appends a PUSH_INT instruction with an inline integer.
func (a *Assembler) EmitPushInt(value int64) {
	a.Emit(OpPushInt)
	a.emitUint64(uint64(value))
}

// EmitPeek appends a PEEK instruction with a relative stack index.
func (a *Assembler) EmitPeek(index uint32) {
	a.Emit(OpPeek)
	a.emitUint32(index)
}

// EmitCall appends a CALL instruction carrying the argument count.
func (a *Assembler) EmitCall(nargs uint32) {
	a.Emit(OpCall)
	a.emitUint32(nargs)
}

// EmitReturn appends a RET instruction carrying the local stack depth and
// the enclosing function's argument count.
func (a *Assembler) EmitReturn(depth, nargs uint32) {
	a.Emit(OpReturn)
	a.emitUint32(depth)
	a.emitUint32(nargs)
}

// EmitJump appends a JUMP instruction referencing a label.
func (a *Assembler) EmitJump(label Label) {
	a.Emit(OpJump)
	a.Reference(label)
}

// EmitJumpFalse appends a JUMP_FALSE instruction referencing a label.
func (a *Assembler) EmitJumpFalse(label Label) {
	a.Emit(OpJumpFalse)
	a.Reference(label)
}

func (a *Assembler) emitUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	a.code = append(a.code, buf[:]...)
}

func (a *Assembler) emitUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	a.code = append(a.code, buf[:]...)
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction renders the instruction at pc and returns the
// offset of the next instruction.
func DisassembleInstruction(code []byte, pc int) (string, int) {
	op := Opcode(code[pc])
	next := pc + 1 + op.Info().OperandBytes

	switch op {
	case OpPop, OpAdd, OpHalt:
		return fmt.Sprintf("%06d  %s", pc, op.Name()), next

	case OpPushFunc, OpJump, OpJumpFalse:
		addr := binary.LittleEndian.Uint64(code[pc+1:])
		return fmt.Sprintf("%06d  %s %d", pc, op.Name(), addr), next

	case OpPushProto:
		idx := binary.LittleEndian.Uint64(code[pc+1:])
		return fmt.Sprintf("%06d  %s prim=%d", pc, op.Name(), idx), next

	case OpPushInt:
		v := int64(binary.LittleEndian.Uint64(code[pc+1:]))
		return fmt.Sprintf("%06d  %s %d", pc, op.Name(), v), next

	case OpPeek:
		idx := binary.LittleEndian.Uint32(code[pc+1:])
		return fmt.Sprintf("%06d  %s %d", pc, op.Name(), idx), next

	case OpCall:
		nargs := binary.LittleEndian.Uint32(code[pc+1:])
		return fmt.Sprintf("%06d  %s nargs=%d", pc, op.Name(), nargs), next

	case OpReturn:
		depth := binary.LittleEndian.Uint32(code[pc+1:])
		nargs := binary.LittleEndian.Uint32(code[pc+5:])
		return fmt.Sprintf("%06d  %s depth=%d nargs=%d", pc, op.Name(), depth, nargs), next

	default:
		return fmt.Sprintf("%06d  %s", pc, op.Name()), next
	}
}

// Disassemble returns a full listing of the given code buffer.
func Disassemble(code []byte) string {
	var sb strings.Builder
	pc := 0
	for pc < len(code) {
		line, next := DisassembleInstruction(code, pc)
		sb.WriteString(line)
		sb.WriteByte('\n')
		if next <= pc || next > len(code) {
			break
		}
		pc = next
	}
	return sb.String()
}
