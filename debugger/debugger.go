package debugger

import (
	"fmt"

	"rv32emu/loader"
	"rv32emu/vm"
)

// Debugger wraps a loaded program with the breakpoint and single-step
// bookkeeping every host view (TUI, GUI) needs; the interpreter core
// itself has no notion of breakpoints. It keeps the original load
// parameters so Reset can rebuild a pristine Machine instead of only
// rewinding registers.
type Debugger struct {
	Program     *loader.Program
	Breakpoints map[uint32]bool
	Watchpoints *WatchpointManager
	LastResult  vm.StepResult
	History     []string

	source             string
	origin, memSize, stackTop uint32
}

func New(prog *loader.Program, source string, origin, memSize, stackTop uint32) *Debugger {
	return &Debugger{
		Program: prog, Breakpoints: make(map[uint32]bool), Watchpoints: NewWatchpointManager(),
		source: source, origin: origin, memSize: memSize, stackTop: stackTop,
	}
}

func (d *Debugger) Machine() *vm.Machine { return d.Program.Machine }

func (d *Debugger) ToggleBreakpoint(addr uint32) bool {
	if d.Breakpoints[addr] {
		delete(d.Breakpoints, addr)
		return false
	}
	d.Breakpoints[addr] = true
	return true
}

// Step executes exactly one instruction and records the result.
func (d *Debugger) Step() vm.StepResult {
	d.LastResult = d.Program.Machine.Step()
	return d.LastResult
}

// Continue steps until a breakpoint, a watchpoint change, a trap, or a
// halt, up to maxSteps.
func (d *Debugger) Continue(maxSteps uint64) []vm.StepResult {
	var results []vm.StepResult
	for i := uint64(0); maxSteps == 0 || i < maxSteps; i++ {
		r := d.Step()
		results = append(results, r)
		if r.Kind == vm.Halted || r.Kind == vm.Trapped {
			break
		}
		if d.Breakpoints[d.Program.Machine.PC] {
			break
		}
		if len(d.CheckAll()) > 0 {
			break
		}
	}
	return results
}

// Reset reassembles and reloads the original source, discarding all
// execution state including memory writes the guest made.
func (d *Debugger) Reset() error {
	prog, errs := loader.Load(d.source, d.origin, d.memSize, d.stackTop)
	if errs.HasErrors() {
		return errs
	}
	d.Program = prog
	d.LastResult = vm.StepResult{}
	d.History = nil
	for _, wp := range d.Watchpoints.watchpoints {
		wp.Armed = false
	}
	return nil
}

func (d *Debugger) ConsoleOutput() string {
	bus, ok := d.Program.Machine.Mem.(*vm.MMIOBus)
	if !ok {
		return ""
	}
	c := bus.Console()
	if c == nil {
		return ""
	}
	return c.String()
}

// RegisterLine formats one register for display panels shared by the TUI
// and GUI front ends.
func RegisterLine(m *vm.Machine, i uint32) string {
	return fmt.Sprintf("%-4s x%-2d  0x%08x", vm.RegNames[i], i, m.GetReg(i))
}
