package debugger

import "testing"

func TestWatchpointDetectsValueChange(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 1\nsw t0, 0(zero)\naddi t0, zero, 2\nsw t0, 0(zero)\nebreak\n")
	wp := d.Watchpoints.Add(0)
	if wp.Armed {
		t.Fatalf("expected a freshly added watchpoint to be unarmed")
	}

	d.Step() // addi
	if hits := d.CheckAll(); len(hits) != 0 {
		t.Fatalf("expected no hits before the first write, got %v", hits)
	}
	d.Step() // sw t0, 0(zero) -> mem[0] = 1
	if hits := d.CheckAll(); len(hits) != 1 {
		t.Fatalf("expected one hit after the first store, got %d", len(hits))
	}
	d.Step() // addi
	if hits := d.CheckAll(); len(hits) != 0 {
		t.Fatalf("expected no hits with mem[0] unchanged, got %v", hits)
	}
	d.Step() // sw t0, 0(zero) -> mem[0] = 2
	hits := d.CheckAll()
	if len(hits) != 1 || hits[0].HitCount != 2 {
		t.Fatalf("expected a second hit with HitCount 2, got %v", hits)
	}
}

func TestWatchpointManagerAddRemove(t *testing.T) {
	wm := NewWatchpointManager()
	wp := wm.Add(0x100)
	if len(wm.All()) != 1 {
		t.Fatalf("expected one watchpoint after add")
	}
	if !wm.Remove(wp.ID) {
		t.Fatalf("expected remove to succeed")
	}
	if len(wm.All()) != 0 {
		t.Fatalf("expected no watchpoints after remove")
	}
}

func TestContinueStopsOnWatchpointHit(t *testing.T) {
	d := newTestDebugger(t, "addi t0, zero, 1\nsw t0, 0(zero)\nebreak\n")
	d.Watchpoints.Add(0)
	d.CheckAll() // arm baseline before continuing
	results := d.Continue(0)
	if len(results) != 2 {
		t.Fatalf("expected continue to stop right after the store, got %d steps", len(results))
	}
}
