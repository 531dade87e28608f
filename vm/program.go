package vm

import "encoding/binary"

// ---------------------------------------------------------------------------
// Program: immutable compiled bytecode
// ---------------------------------------------------------------------------

// Program holds the bytecode produced by one translation together with the
// primitive table resolved while lowering prototype declarations. It is
// immutable once constructed; execution only moves a program counter over it.
type Program struct {
	code      []byte
	prims     []RuntimeFn
	primNames []string
}

// NewProgram creates a program from assembled code and its primitive table.
// primNames parallels prims and records the registry names the primitives
// were resolved from, so the program can be serialized and re-resolved.
func NewProgram(code []byte, prims []RuntimeFn, primNames []string) *Program {
	return &Program{code: code, prims: prims, primNames: primNames}
}

// Len returns the size of the code buffer in bytes.
func (p *Program) Len() int {
	return len(p.code)
}

// Code returns the raw bytecode.
func (p *Program) Code() []byte {
	return p.code
}

// PrimNames returns the registry names of the program's primitives, in
// table order.
func (p *Program) PrimNames() []string {
	return p.primNames
}

// Prim returns the primitive at the given table index.
func (p *Program) Prim(index uint64) (RuntimeFn, bool) {
	if index >= uint64(len(p.prims)) {
		return nil, false
	}
	return p.prims[index], true
}

// Disassemble returns a listing of the program's instructions.
func (p *Program) Disassemble() string {
	return Disassemble(p.code)
}

// ---------------------------------------------------------------------------
// Typed reads
// ---------------------------------------------------------------------------

// Reads advance the supplied program counter. An out-of-bounds read is a
// runtime fault: the buffer is trusted to contain well-formed instructions,
// but a corrupted jump target must not escape the engine's error contract.

func (p *Program) readOpcode(pc *uint64) Opcode {
	p.check(*pc, 1)
	op := Opcode(p.code[*pc])
	*pc++
	return op
}

func (p *Program) readUint32(pc *uint64) uint32 {
	p.check(*pc, 4)
	v := binary.LittleEndian.Uint32(p.code[*pc:])
	*pc += 4
	return v
}

func (p *Program) readUint64(pc *uint64) uint64 {
	p.check(*pc, 8)
	v := binary.LittleEndian.Uint64(p.code[*pc:])
	*pc += 8
	return v
}

func (p *Program) readInt64(pc *uint64) int64 {
	return int64(p.readUint64(pc))
}

// check faults unless n bytes are readable at pc. Written so that pc near
// the top of the uint64 range cannot wrap the sum past the length check.
func (p *Program) check(pc uint64, n uint64) {
	if pc > uint64(len(p.code)) || n > uint64(len(p.code))-pc {
		panic(&RuntimeError{PC: pc, Msg: "code read out of bounds"})
	}
}
