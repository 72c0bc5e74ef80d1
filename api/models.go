package api

import "rv32emu/vm"

// CreateSessionRequest is the body of POST /api/v1/session: assembly
// source plus the layout parameters loader.Load needs.
type CreateSessionRequest struct {
	Source     string `json:"source"`
	Origin     uint32 `json:"origin"`
	MemorySize uint32 `json:"memorySize"`
	StackTop   uint32 `json:"stackTop"`
	StopOnTrap bool   `json:"stopOnTrap"`
}

// CreateSessionResponse returns the new session's id plus the assembler's
// output, so a client never needs to re-assemble locally.
type CreateSessionResponse struct {
	SessionID string            `json:"sessionId"`
	Symbols   map[string]uint32 `json:"symbols"`
	Dump      string            `json:"disassembly"`
	Entry     uint32            `json:"entryPoint"`
}

// AssembleErrorResponse reports every collected assembler error at once;
// the assembler never stops at the first one.
type AssembleErrorResponse struct {
	Errors []AssembleError `json:"errors"`
}

type AssembleError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// RunRequest bounds a POST .../run call.
type RunRequest struct {
	MaxSteps   uint64 `json:"maxSteps"`
	StopOnTrap bool   `json:"stopOnTrap"`
}

// StateResponse mirrors vm.StateDump over the wire, plus console output
// accumulated so far.
type StateResponse struct {
	PC      uint32    `json:"pc"`
	Regs    [32]uint32 `json:"regs"`
	Priv    string    `json:"priv"`
	MPP     string    `json:"mpp"`
	Mtvec   uint32    `json:"mtvec"`
	Mepc    uint32    `json:"mepc"`
	Mtval   uint32    `json:"mtval"`
	Mcause  uint32    `json:"mcause"`
	Cycle   uint64    `json:"cycle"`
	Instret uint64    `json:"instret"`
	Console string    `json:"console"`
}

func stateResponse(d vm.StateDump, console string) StateResponse {
	return StateResponse{
		PC: d.PC, Regs: d.Regs, Priv: d.Priv.String(), MPP: d.MPP.String(),
		Mtvec: d.Mtvec, Mepc: d.Mepc, Mtval: d.Mtval, Mcause: d.Mcause,
		Cycle: d.Cycle, Instret: d.Instret, Console: console,
	}
}

// StepResultResponse mirrors one vm.StepResult.
type StepResultResponse struct {
	Kind  string `json:"kind"`
	Cause string `json:"cause,omitempty"`
	EPC   uint32 `json:"epc,omitempty"`
}

func stepResultResponse(r vm.StepResult) StepResultResponse {
	out := StepResultResponse{}
	switch r.Kind {
	case vm.Retired:
		out.Kind = "retired"
	case vm.Trapped:
		out.Kind = "trapped"
		out.Cause = r.Cause.String()
		out.EPC = r.EPC
	case vm.Halted:
		out.Kind = "halted"
	}
	return out
}
