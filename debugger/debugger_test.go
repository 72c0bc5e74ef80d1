package debugger

import (
	"testing"

	"rv32emu/loader"
	"rv32emu/vm"
)

func newTestDebugger(t *testing.T, src string) *Debugger {
	t.Helper()
	prog, errs := loader.Load(src, 0, 4096, 4096)
	if errs.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", errs)
	}
	return New(prog, src, 0, 4096, 4096)
}

func TestStepAdvancesAndRecordsResult(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 5\nebreak\n")
	r := d.Step()
	if r.Kind != vm.Retired {
		t.Fatalf("expected retired, got %v", r.Kind)
	}
	if d.LastResult.Kind != vm.Retired {
		t.Fatalf("expected LastResult to record the step")
	}
	if d.Machine().GetReg(5) != 5 {
		t.Fatalf("expected t0 == 5, got %d", d.Machine().GetReg(5))
	}
}

func TestContinueStopsAtBreakpoint(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 1\naddi t0, t0, 1\naddi t0, t0, 1\nebreak\n")
	d.ToggleBreakpoint(8) // third addi instruction
	results := d.Continue(0)
	if len(results) != 2 {
		t.Fatalf("expected continue to stop after 2 steps, got %d", len(results))
	}
	if d.Machine().PC != 8 {
		t.Fatalf("expected pc at breakpoint 0x8, got 0x%x", d.Machine().PC)
	}
}

func TestContinueStopsOnHalt(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 1\nebreak\n")
	results := d.Continue(0)
	last := results[len(results)-1]
	if last.Kind != vm.Halted {
		t.Fatalf("expected final result halted, got %v", last.Kind)
	}
}

func TestToggleBreakpointAddsAndRemoves(t *testing.T) {
	d := newTestDebugger(t, "ebreak\n")
	if added := d.ToggleBreakpoint(0); !added {
		t.Fatalf("expected first toggle to add the breakpoint")
	}
	if !d.Breakpoints[0] {
		t.Fatalf("expected breakpoint to be set")
	}
	if removed := d.ToggleBreakpoint(0); removed {
		t.Fatalf("expected second toggle to remove the breakpoint")
	}
	if d.Breakpoints[0] {
		t.Fatalf("expected breakpoint to be cleared")
	}
}

func TestResetDiscardsExecutionState(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 9\nebreak\n")
	d.Step()
	if d.Machine().GetReg(5) != 9 {
		t.Fatalf("expected t0 == 9 before reset")
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	if d.Machine().GetReg(5) != 0 {
		t.Fatalf("expected t0 == 0 after reset, got %d", d.Machine().GetReg(5))
	}
	if d.Machine().PC != 0 {
		t.Fatalf("expected pc == 0 after reset")
	}
	if d.LastResult.Kind != vm.Retired {
		t.Fatalf("expected LastResult to be zero value after reset, got %v", d.LastResult.Kind)
	}
}

func TestRegisterLineFormatsNameAndValue(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 42\nebreak\n")
	d.Step()
	line := RegisterLine(d.Machine(), 5)
	if line == "" {
		t.Fatalf("expected a non-empty register line")
	}
}

func TestDisasmAroundMarksCurrentPC(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 1\naddi t0, t0, 1\nebreak\n")
	out := disasmAround(d, 0)
	if out == "" {
		t.Fatalf("expected non-empty disassembly output")
	}
}
