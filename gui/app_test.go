package main

import "testing"

func TestAppLoadProgram(t *testing.T) {
	app := NewApp()
	if err := app.LoadProgram("addi t0, zero, 42\nebreak\n", 0, 4096, 4096); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	regs := app.GetRegisters()
	if regs.PC != 0 {
		t.Errorf("expected PC=0, got 0x%08x", regs.PC)
	}
}

func TestAppStepExecution(t *testing.T) {
	app := NewApp()
	if err := app.LoadProgram("addi t0, zero, 42\nebreak\n", 0, 4096, 4096); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	kind, err := app.Step()
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if kind != "retired" {
		t.Fatalf("expected retired, got %q", kind)
	}

	regs := app.GetRegisters()
	if regs.Regs[5] != 42 {
		t.Errorf("expected t0=42, got %d", regs.Regs[5])
	}
}

func TestAppToggleBreakpoint(t *testing.T) {
	app := NewApp()
	if err := app.LoadProgram("addi t0, zero, 1\nebreak\n", 0, 4096, 4096); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	if !app.ToggleBreakpoint(4) {
		t.Fatalf("expected first toggle to add the breakpoint")
	}
	bps := app.GetBreakpoints()
	if len(bps) != 1 || bps[0] != 4 {
		t.Fatalf("expected breakpoint list [4], got %v", bps)
	}
}
