package asm_test

import (
	"strings"
	"testing"

	"rv32emu/asm"
	"rv32emu/vm"
)

func decodeWordAt(t *testing.T, image []byte, off int) vm.Decoded {
	t.Helper()
	if off+4 > len(image) {
		t.Fatalf("offset %d out of range (image is %d bytes)", off, len(image))
	}
	w := uint32(image[off]) | uint32(image[off+1])<<8 | uint32(image[off+2])<<16 | uint32(image[off+3])<<24
	return vm.Decode(w)
}

func TestAssembleSimpleInstruction(t *testing.T) {
	out, errs := asm.Assemble("addi t0, zero, 5\nebreak\n", 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(out.Image) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(out.Image))
	}
	d := decodeWordAt(t, out.Image, 0)
	if d.Op != vm.OpADDI || d.Rd != 5 || d.Rs1 != 0 || d.Imm != 5 {
		t.Fatalf("unexpected decode: %+v", d)
	}
	d2 := decodeWordAt(t, out.Image, 4)
	if d2.Op != vm.OpEBREAK {
		t.Fatalf("expected ebreak, got %+v", d2)
	}
}

func TestAssembleBranchToLabel(t *testing.T) {
	src := "loop:\n  addi t0, t0, -1\n  bnez t0, loop\n  ebreak\n"
	out, errs := asm.Assemble(src, 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	d := decodeWordAt(t, out.Image, 4)
	if d.Op != vm.OpBNE {
		t.Fatalf("expected bne, got %s", d.Op)
	}
	if d.Imm != -4 {
		t.Fatalf("expected branch offset -4, got %d", d.Imm)
	}
}

func TestAssembleLiSmallConstant(t *testing.T) {
	out, errs := asm.Assemble("li t0, 100\n", 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(out.Image) != 4 {
		t.Fatalf("expected a single instruction, got %d bytes", len(out.Image))
	}
	d := decodeWordAt(t, out.Image, 0)
	if d.Op != vm.OpADDI || d.Imm != 100 {
		t.Fatalf("unexpected decode: %+v", d)
	}
}

func TestAssembleLiLargeConstant(t *testing.T) {
	out, errs := asm.Assemble("li t0, 0x12345678\n", 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(out.Image) != 8 {
		t.Fatalf("expected two instructions, got %d bytes", len(out.Image))
	}
	hi := decodeWordAt(t, out.Image, 0)
	lo := decodeWordAt(t, out.Image, 4)
	if hi.Op != vm.OpLUI || lo.Op != vm.OpADDI {
		t.Fatalf("expected lui+addi, got %s/%s", hi.Op, lo.Op)
	}
	reconstructed := uint32(hi.Imm) + uint32(lo.Imm)
	if reconstructed != 0x12345678 {
		t.Fatalf("expected reconstructed value 0x12345678, got 0x%x", reconstructed)
	}
}

func TestAssembleLaResolvesPcRelativeAddress(t *testing.T) {
	src := "la a0, msg\nebreak\nmsg:\n.asciz \"Hi\"\n"
	out, errs := asm.Assemble(src, 0x1000)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	auipc := decodeWordAt(t, out.Image, 0)
	addi := decodeWordAt(t, out.Image, 4)
	if auipc.Op != vm.OpAUIPC || addi.Op != vm.OpADDI {
		t.Fatalf("expected auipc+addi, got %s/%s", auipc.Op, addi.Op)
	}
	msgAddr, ok := out.Symbols["msg"]
	if !ok {
		t.Fatalf("expected symbol msg to be defined")
	}
	reconstructed := uint32(0x1000) + uint32(auipc.Imm) + uint32(addi.Imm)
	if reconstructed != msgAddr {
		t.Fatalf("expected la to resolve to 0x%x, got 0x%x", msgAddr, reconstructed)
	}
}

func TestAssembleCallExpandsToAuipcJalr(t *testing.T) {
	src := "call sub\nebreak\nsub:\n  ret\n"
	out, errs := asm.Assemble(src, 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	auipc := decodeWordAt(t, out.Image, 0)
	jalr := decodeWordAt(t, out.Image, 4)
	if auipc.Op != vm.OpAUIPC || auipc.Rd != 1 {
		t.Fatalf("expected auipc ra, got %+v", auipc)
	}
	if jalr.Op != vm.OpJALR || jalr.Rd != 1 || jalr.Rs1 != 1 {
		t.Fatalf("expected jalr ra, ra, ..., got %+v", jalr)
	}
	target := uint32(0) + uint32(auipc.Imm) + uint32(jalr.Imm)
	if target != out.Symbols["sub"] {
		t.Fatalf("call target 0x%x does not match sub at 0x%x", target, out.Symbols["sub"])
	}
}

func TestAssembleDuplicateLabelReportsBothLines(t *testing.T) {
	src := "foo:\n  nop\nfoo:\n  nop\n"
	_, errs := asm.Assemble(src, 0)
	if !errs.HasErrors() {
		t.Fatalf("expected duplicate label error")
	}
	found := false
	for _, e := range errs.Errors {
		if e.Line == 3 && strings.Contains(e.Message, "first defined on line 1") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error reported at line 3 naming line 1, got %v", errs)
	}
}

func TestAssembleUndefinedSymbolError(t *testing.T) {
	_, errs := asm.Assemble("jal zero, nowhere\n", 0)
	if !errs.HasErrors() {
		t.Fatalf("expected undefined symbol error")
	}
}

func TestAssembleWordDirectiveWithLabelReference(t *testing.T) {
	src := ".word target\ntarget:\n  nop\n"
	out, errs := asm.Assemble(src, 0x2000)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := uint32(out.Image[0]) | uint32(out.Image[1])<<8 | uint32(out.Image[2])<<16 | uint32(out.Image[3])<<24
	if got != out.Symbols["target"] {
		t.Fatalf("expected .word to store 0x%x, got 0x%x", out.Symbols["target"], got)
	}
}

func TestAssembleEquConstant(t *testing.T) {
	src := "STACK_TOP: .equ 0x8000\nli sp, STACK_TOP\n"
	out, errs := asm.Assemble(src, 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if out.Symbols["STACK_TOP"] != 0x8000 {
		t.Fatalf("expected STACK_TOP == 0x8000, got 0x%x", out.Symbols["STACK_TOP"])
	}
	d := decodeWordAt(t, out.Image, 0)
	if d.Op != vm.OpLUI {
		t.Fatalf("0x8000 should need lui+addi, got %s", d.Op)
	}
}

func TestAssembleEquConstantTwoOperandForm(t *testing.T) {
	src := ".equ STACK_TOP, 0x8000\nli sp, STACK_TOP\n"
	out, errs := asm.Assemble(src, 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if out.Symbols["STACK_TOP"] != 0x8000 {
		t.Fatalf("expected STACK_TOP == 0x8000, got 0x%x", out.Symbols["STACK_TOP"])
	}
}

func TestAssembleAlignPadsToPowerOfTwo(t *testing.T) {
	src := ".byte 1\n.align 2\n.word 0xdeadbeef\n"
	out, errs := asm.Assemble(src, 0)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// .align 2 means align to 2^2 == 4 bytes, not 2.
	if len(out.Image) != 8 {
		t.Fatalf("expected 1 byte + 3 padding + 4-byte word == 8 bytes, got %d", len(out.Image))
	}
	for i := 1; i < 4; i++ {
		if out.Image[i] != 0 {
			t.Fatalf("expected zero padding at offset %d, got 0x%02x", i, out.Image[i])
		}
	}
	got := uint32(out.Image[4]) | uint32(out.Image[5])<<8 | uint32(out.Image[6])<<16 | uint32(out.Image[7])<<24
	if got != 0xdeadbeef {
		t.Fatalf("expected word 0xdeadbeef at offset 4, got 0x%x", got)
	}
}
