package vm

import "fmt"

// ---------------------------------------------------------------------------
// Value: tagged runtime value
// ---------------------------------------------------------------------------

// Kind discriminates the three shapes a stack value can take.
type Kind uint8

const (
	// KindInt is a signed 64-bit integer.
	KindInt Kind = iota
	// KindAddr is an absolute offset into the code buffer, produced by
	// PUSH_FUNC and by CALL when it saves the return address.
	KindAddr
	// KindProto is a reference to a native primitive, stored as an index
	// into the program's primitive table.
	KindProto
)

// String returns the tag name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindAddr:
		return "addr"
	case KindProto:
		return "proto"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a tagged scalar held on the evaluation stack. Integers carry the
// full int64 range, so the tag lives alongside the payload rather than in
// spare bits of it. Values are never heap-allocated and never shared; their
// lifetime is exactly push to pop.
type Value struct {
	kind Kind
	bits uint64
}

// FromInt creates an integer value.
func FromInt(n int64) Value {
	return Value{kind: KindInt, bits: uint64(n)}
}

// FromAddr creates a code-address value.
func FromAddr(addr uint64) Value {
	return Value{kind: KindAddr, bits: addr}
}

// FromProto creates a primitive-reference value.
func FromProto(index uint64) Value {
	return Value{kind: KindProto, bits: index}
}

// Kind returns the tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsInt returns true if v carries the integer tag.
func (v Value) IsInt() bool { return v.kind == KindInt }

// IsAddr returns true if v carries the code-address tag.
func (v Value) IsAddr() bool { return v.kind == KindAddr }

// IsProto returns true if v carries the primitive-reference tag.
func (v Value) IsProto() bool { return v.kind == KindProto }

// Int returns v as an int64.
// Panics if v is not an integer.
func (v Value) Int() int64 {
	if v.kind != KindInt {
		panic("Value.Int: not an integer")
	}
	return int64(v.bits)
}

// Addr returns v as a code address.
// Panics if v is not an address.
func (v Value) Addr() uint64 {
	if v.kind != KindAddr {
		panic("Value.Addr: not an address")
	}
	return v.bits
}

// Proto returns the primitive table index encoded in v.
// Panics if v is not a primitive reference.
func (v Value) Proto() uint64 {
	if v.kind != KindProto {
		panic("Value.Proto: not a primitive reference")
	}
	return v.bits
}

// IsTruthy reports whether v is considered true in conditionals.
// Only the integer zero is falsy; addresses and primitive references are
// unconditionally truthy.
func (v Value) IsTruthy() bool {
	if v.kind == KindInt {
		return v.bits != 0
	}
	return true
}

// String renders the value for traces and test failures.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", int64(v.bits))
	case KindAddr:
		return fmt.Sprintf("addr(%d)", v.bits)
	case KindProto:
		return fmt.Sprintf("proto(%d)", v.bits)
	}
	return fmt.Sprintf("value(%d, %d)", v.kind, v.bits)
}
