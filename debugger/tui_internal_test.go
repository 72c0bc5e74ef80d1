package debugger

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"rv32emu/loader"
)

func newScreenTUI(t *testing.T) *TUI {
	t.Helper()
	prog, errs := loader.Load("addi t0, zero, 5\nebreak\n", 0, 4096, 4096)
	if errs.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", errs)
	}
	d := New(prog, "addi t0, zero, 5\nebreak\n", 0, 4096, 4096)

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	t.Cleanup(screen.Fini)

	return NewTUIWithScreen(d, screen)
}

func TestNewTUIWithScreenBuildsLayout(t *testing.T) {
	tui := newScreenTUI(t)
	if tui.Layout == nil {
		t.Fatalf("expected a non-nil layout")
	}
	if tui.RegisterView.GetText(false) == "" {
		t.Fatalf("expected registers to be populated on construction")
	}
}

func TestRunCommandStepsOneInstruction(t *testing.T) {
	tui := newScreenTUI(t)
	tui.runCommand("step")
	if tui.Debugger.LastResult.Kind.String() != "retired" {
		t.Fatalf("expected retired after one step, got %v", tui.Debugger.LastResult.Kind)
	}
}

func TestRunCommandTogglesBreakpoint(t *testing.T) {
	tui := newScreenTUI(t)
	tui.runCommand("break 0x4")
	if !tui.Debugger.Breakpoints[4] {
		t.Fatalf("expected breakpoint at 0x4 to be set")
	}
}
