package loader

import (
	"testing"

	"rv32emu/vm"
)

func TestLoadSimpleProgram(t *testing.T) {
	src := "addi t0, zero, 5\nebreak\n"
	prog, errs := Load(src, 0, 4096, 4096)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if prog.Machine.PC != 0 {
		t.Fatalf("expected entry point 0, got 0x%x", prog.Machine.PC)
	}
	if prog.Machine.GetReg(2) != 4096 {
		t.Fatalf("expected sp initialized to stack top, got 0x%x", prog.Machine.GetReg(2))
	}

	res := prog.Machine.Step()
	if res.Kind != vm.Retired {
		t.Fatalf("expected first step to retire, got %v", res.Kind)
	}
	res2 := prog.Machine.Step()
	if res2.Kind != vm.Halted {
		t.Fatalf("expected ebreak to halt, got %v", res2.Kind)
	}
}

func TestLoadResolvesStartSymbolAsEntryPoint(t *testing.T) {
	src := "j _start\n_start:\n  ebreak\n"
	prog, errs := Load(src, 0, 4096, 4096)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if prog.Machine.PC != prog.Output.Symbols["_start"] {
		t.Fatalf("expected entry point to be _start (0x%x), got 0x%x", prog.Output.Symbols["_start"], prog.Machine.PC)
	}
}

func TestLoadImageTooLargeErrors(t *testing.T) {
	src := ".zero 100\n"
	_, errs := Load(src, 0, 16, 16)
	if !errs.HasErrors() {
		t.Fatalf("expected an error for an oversized image")
	}
}
