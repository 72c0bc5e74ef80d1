package debugger

import (
	"path/filepath"
	"testing"
)

func TestSaveSessionThenLoadRestoresBreakpointsAndWatchpoints(t *testing.T) {
	d := newTestDebugger(t, "ebreak\n")
	d.ToggleBreakpoint(0)
	d.ToggleBreakpoint(4)
	d.Watchpoints.Add(0x100)

	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := d.SaveSession(path); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	d2 := newTestDebugger(t, "ebreak\n")
	if err := d2.LoadSession(path); err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if !d2.Breakpoints[0] || !d2.Breakpoints[4] {
		t.Fatalf("expected both breakpoints restored, got %v", d2.Breakpoints)
	}
	if len(d2.Watchpoints.All()) != 1 || d2.Watchpoints.All()[0].Address != 0x100 {
		t.Fatalf("expected one watchpoint at 0x100 restored, got %v", d2.Watchpoints.All())
	}
}
