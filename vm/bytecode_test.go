package vm

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestLabelsMonotonic(t *testing.T) {
	a := NewAssembler()
	l1 := a.NewLabel()
	l2 := a.NewLabel()
	l3 := a.NewLabel()
	if l1 == l2 || l2 == l3 || l1 == l3 {
		t.Fatalf("labels not distinct: %d %d %d", l1, l2, l3)
	}
	if l2 <= l1 || l3 <= l2 {
		t.Fatalf("labels not monotonic: %d %d %d", l1, l2, l3)
	}
}

func TestBackwardReference(t *testing.T) {
	a := NewAssembler()
	target := a.NewLabel()
	a.Emit(OpPop)
	a.Bind(target) // offset 1
	a.EmitJump(target)

	if n := a.PendingFixups(); n != 0 {
		t.Fatalf("PendingFixups = %d, want 0", n)
	}
	code := a.Code()
	if addr := binary.LittleEndian.Uint64(code[2:]); addr != 1 {
		t.Errorf("backward reference = %d, want 1", addr)
	}
}

func TestForwardReferencePatched(t *testing.T) {
	a := NewAssembler()
	target := a.NewLabel()
	a.EmitJump(target)

	if n := a.PendingFixups(); n != 1 {
		t.Fatalf("PendingFixups before bind = %d, want 1", n)
	}

	a.Emit(OpPop)
	a.Bind(target) // offset 10

	if n := a.PendingFixups(); n != 0 {
		t.Fatalf("PendingFixups after bind = %d, want 0", n)
	}
	code := a.Code()
	if addr := binary.LittleEndian.Uint64(code[1:]); addr != 10 {
		t.Errorf("patched reference = %d, want 10", addr)
	}
}

func TestForwardMatchesHandEncoding(t *testing.T) {
	// A patched forward reference must be indistinguishable from emitting
	// the final address directly.
	a := NewAssembler()
	label := a.NewLabel()
	a.EmitJump(label)
	a.Bind(label)
	a.Emit(OpHalt)

	want := []byte{byte(OpJump), 9, 0, 0, 0, 0, 0, 0, 0, byte(OpHalt)}
	if string(a.Code()) != string(want) {
		t.Errorf("code = %v, want %v", a.Code(), want)
	}
}

func TestMultipleFixupsFlushed(t *testing.T) {
	a := NewAssembler()
	target := a.NewLabel()
	a.EmitJump(target)      // offset 0, operand at 1
	a.EmitJumpFalse(target) // offset 9, operand at 10
	a.EmitPushFunc(target)  // offset 18, operand at 19
	a.Bind(target)          // offset 27

	if n := a.PendingFixups(); n != 0 {
		t.Fatalf("PendingFixups = %d, want 0", n)
	}
	code := a.Code()
	for _, offset := range []int{1, 10, 19} {
		if addr := binary.LittleEndian.Uint64(code[offset:]); addr != 27 {
			t.Errorf("operand at %d = %d, want 27", offset, addr)
		}
	}
}

func TestUnallocatedLabelPanics(t *testing.T) {
	// The zero Label never comes from NewLabel; using one means a label
	// variable was never initialized.
	tests := []struct {
		name string
		fn   func(a *Assembler)
	}{
		{"Bind", func(a *Assembler) { a.Bind(0) }},
		{"Reference", func(a *Assembler) { a.Reference(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s(0) did not panic", tt.name)
				}
			}()
			tt.fn(NewAssembler())
		})
	}
}

func TestBindTwicePanics(t *testing.T) {
	a := NewAssembler()
	label := a.NewLabel()
	a.Bind(label)

	defer func() {
		if recover() == nil {
			t.Errorf("binding a label twice did not panic")
		}
	}()
	a.Bind(label)
}

func TestOperandEncoding(t *testing.T) {
	a := NewAssembler()
	a.EmitPushInt(-5)
	a.EmitPeek(3)
	a.EmitCall(2)
	a.EmitReturn(1, 2)

	code := a.Code()
	if got := int64(binary.LittleEndian.Uint64(code[1:])); got != -5 {
		t.Errorf("PUSH_INT operand = %d, want -5", got)
	}
	if got := binary.LittleEndian.Uint32(code[10:]); got != 3 {
		t.Errorf("PEEK operand = %d, want 3", got)
	}
	if got := binary.LittleEndian.Uint32(code[15:]); got != 2 {
		t.Errorf("CALL operand = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(code[20:]); got != 1 {
		t.Errorf("RET depth operand = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(code[24:]); got != 2 {
		t.Errorf("RET nargs operand = %d, want 2", got)
	}
}

func TestDisassembleInstruction(t *testing.T) {
	a := NewAssembler()
	a.EmitPushInt(42)
	a.Emit(OpHalt)

	line, next := DisassembleInstruction(a.Code(), 0)
	if !strings.Contains(line, "PUSH_INT 42") {
		t.Errorf("disassembly %q missing PUSH_INT 42", line)
	}
	if next != 9 {
		t.Errorf("next offset = %d, want 9", next)
	}

	line, next = DisassembleInstruction(a.Code(), next)
	if !strings.Contains(line, "HALT") {
		t.Errorf("disassembly %q missing HALT", line)
	}
	if next != 10 {
		t.Errorf("next offset = %d, want 10", next)
	}
}

func TestDisassembleListing(t *testing.T) {
	a := NewAssembler()
	a.EmitPushInt(1)
	a.EmitCall(1)
	a.EmitReturn(0, 1)
	a.Emit(OpHalt)

	listing := Disassemble(a.Code())
	for _, want := range []string{"PUSH_INT 1", "CALL nargs=1", "RET depth=0 nargs=1", "HALT"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}
