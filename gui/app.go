package main

import (
	"context"
	"fmt"

	"rv32emu/debugger"
	"rv32emu/loader"
	"rv32emu/vm"
)

// App is the Wails-bound backend for the browser-based desktop shell: a
// thin adapter exposing debugger.Debugger operations as methods the
// frontend can call directly.
type App struct {
	ctx context.Context
	dbg *debugger.Debugger
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// RegisterState is what the frontend renders in its register panel.
type RegisterState struct {
	PC      uint32    `json:"pc"`
	Regs    [32]uint32 `json:"regs"`
	Priv    string    `json:"priv"`
	Cycle   uint64    `json:"cycle"`
	Instret uint64    `json:"instret"`
}

func toRegisterState(d vm.StateDump) RegisterState {
	return RegisterState{PC: d.PC, Regs: d.Regs, Priv: d.Priv.String(), Cycle: d.Cycle, Instret: d.Instret}
}

// LoadProgram assembles source and starts a fresh debugger session over it.
func (a *App) LoadProgram(source string, origin, memSize, stackTop uint32) error {
	prog, errs := loader.Load(source, origin, memSize, stackTop)
	if errs.HasErrors() {
		return fmt.Errorf("assembly failed: %w", errs)
	}
	a.dbg = debugger.New(prog, source, origin, memSize, stackTop)
	return nil
}

func (a *App) GetRegisters() RegisterState {
	if a.dbg == nil {
		return RegisterState{}
	}
	return toRegisterState(a.dbg.Machine().DumpState())
}

func (a *App) Step() (string, error) {
	if a.dbg == nil {
		return "", fmt.Errorf("no program loaded")
	}
	return a.dbg.Step().Kind.String(), nil
}

func (a *App) Continue() (string, error) {
	if a.dbg == nil {
		return "", fmt.Errorf("no program loaded")
	}
	results := a.dbg.Continue(0)
	if len(results) == 0 {
		return "", nil
	}
	return results[len(results)-1].Kind.String(), nil
}

func (a *App) Reset() error {
	if a.dbg == nil {
		return fmt.Errorf("no program loaded")
	}
	return a.dbg.Reset()
}

func (a *App) ToggleBreakpoint(addr uint32) bool {
	if a.dbg == nil {
		return false
	}
	return a.dbg.ToggleBreakpoint(addr)
}

func (a *App) GetBreakpoints() []uint32 {
	if a.dbg == nil {
		return nil
	}
	out := make([]uint32, 0, len(a.dbg.Breakpoints))
	for addr := range a.dbg.Breakpoints {
		out = append(out, addr)
	}
	return out
}

func (a *App) GetSymbols() map[string]uint32 {
	if a.dbg == nil {
		return nil
	}
	return a.dbg.Program.Output.Symbols
}

func (a *App) GetDisassembly() string {
	if a.dbg == nil {
		return ""
	}
	return a.dbg.Program.Output.Dump
}

func (a *App) GetOutput() string {
	if a.dbg == nil {
		return ""
	}
	return a.dbg.ConsoleOutput()
}
