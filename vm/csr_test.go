package vm_test

import (
	"testing"

	"rv32emu/vm"
)

func encodeCSR(funct3, rd, rs1, csr uint32) uint32 {
	return csr<<20 | rs1<<15 | funct3<<12 | rd<<7 | 0x73
}

func TestCSRWriteReadOnlyTraps(t *testing.T) {
	m, bus := newMachine(t)
	// csrrw x0, cycle, x1 (x1 nonzero forces an actual write attempt)
	word := encodeCSR(0x1, 0, 1, vm.CSRCycle)
	m.SetReg(1, 5)
	_ = bus.LoadBytes(0, u32le(word))
	res := m.Step()
	if res.Kind != vm.Trapped || res.Cause != vm.CauseIllegalInstruction {
		t.Fatalf("got %+v, want IllegalInstruction", res)
	}
}

func TestCSRReadOnlyReadableViaSuppressedWrite(t *testing.T) {
	m, bus := newMachine(t)
	m.Cycle = 42
	// csrrs x2, cycle, x0 -- rs1=x0 suppresses the write
	word := encodeCSR(0x2, 2, 0, vm.CSRCycle)
	_ = bus.LoadBytes(0, u32le(word))
	res := m.Step()
	if res.Kind != vm.Retired {
		t.Fatalf("got %+v", res)
	}
	// Step increments cycle before executing, so the read sees 42+1.
	if m.GetReg(2) != 43 {
		t.Fatalf("x2 = %d, want 43", m.GetReg(2))
	}
}

func TestCSRUserModeMstatusTraps(t *testing.T) {
	m, bus := newMachine(t)
	m.Priv = vm.PrivUser
	word := encodeCSR(0x2, 1, 0, vm.CSRMstatus)
	_ = bus.LoadBytes(0, u32le(word))
	res := m.Step()
	if res.Kind != vm.Trapped || res.Cause != vm.CauseIllegalInstruction {
		t.Fatalf("got %+v", res)
	}
}

func TestCSRRWSuppressedReadWhenRdZero(t *testing.T) {
	m, bus := newMachine(t)
	m.Mscratch = 0xAA
	m.SetReg(3, 0x55)
	// csrrw x0, mscratch, x3
	word := encodeCSR(0x1, 0, 3, vm.CSRMscratch)
	_ = bus.LoadBytes(0, u32le(word))
	res := m.Step()
	if res.Kind != vm.Retired {
		t.Fatalf("got %+v", res)
	}
	if m.Mscratch != 0x55 {
		t.Fatalf("mscratch = %#x, want 0x55", m.Mscratch)
	}
}

func TestMstatusPreservesOnlyMPP(t *testing.T) {
	m, bus := newMachine(t)
	m.SetReg(4, 0xFFFFFFFF)
	word := encodeCSR(0x1, 0, 4, vm.CSRMstatus)
	_ = bus.LoadBytes(0, u32le(word))
	m.Step()
	if m.MPP() != vm.PrivMachine {
		t.Fatalf("MPP = %v, want Machine (bits 11:12 of all-ones)", m.MPP())
	}
	if m.Mstatus &^ (0x3 << 11) != 0 {
		t.Fatalf("mstatus = %#x, non-MPP bits must read zero", m.Mstatus)
	}
}
