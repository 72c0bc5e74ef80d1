package vm_test

import (
	"testing"

	"rv32emu/vm"
)

func newMachine(t *testing.T) (*vm.Machine, *vm.MMIOBus) {
	t.Helper()
	bus := vm.NewMMIOBus(vm.NewFlatMemory(vm.DefaultMemorySize))
	return vm.NewMachine(bus), bus
}

func encodeI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeADDI(rd, rs1 uint32, imm int32) uint32 { return encodeI(0x13, 0, rd, rs1, imm) }
func encodeEBREAK() uint32                        { return 0x00100073 }

func TestStepRegZeroInvariant(t *testing.T) {
	m, bus := newMachine(t)
	// addi x0, x0, 5 must not change x0
	word := encodeADDI(0, 0, 5)
	_ = bus.LoadBytes(0, []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)})
	m.Step()
	if m.GetReg(0) != 0 {
		t.Fatalf("x0 = %d, want 0", m.GetReg(0))
	}
}

func TestStepCycleInstretAccounting(t *testing.T) {
	m, bus := newMachine(t)
	word := encodeADDI(5, 0, 7)
	_ = bus.LoadBytes(0, u32le(word))
	res := m.Step()
	if res.Kind != vm.Retired {
		t.Fatalf("expected Retired, got %v", res.Kind)
	}
	if m.Cycle != 1 || m.Instret != 1 {
		t.Fatalf("cycle=%d instret=%d, want 1,1", m.Cycle, m.Instret)
	}
	if m.GetReg(5) != 7 {
		t.Fatalf("x5 = %d, want 7", m.GetReg(5))
	}
}

func TestEbreakHaltsAndDoesNotRetire(t *testing.T) {
	m, bus := newMachine(t)
	_ = bus.LoadBytes(0, u32le(encodeEBREAK()))
	res := m.Step()
	if res.Kind != vm.Halted {
		t.Fatalf("expected Halted, got %v", res.Kind)
	}
	if m.Instret != 0 {
		t.Fatalf("instret = %d, want 0 (ebreak does not retire)", m.Instret)
	}
	if m.Cycle != 1 {
		t.Fatalf("cycle = %d, want 1", m.Cycle)
	}
}

func TestInstructionAddressMisalignedTrap(t *testing.T) {
	m, _ := newMachine(t)
	m.PC = 2
	res := m.Step()
	if res.Kind != vm.Trapped || res.Cause != vm.CauseInstructionAddressMisaligned {
		t.Fatalf("got %+v", res)
	}
	if m.Mepc != 2 {
		t.Fatalf("mepc = %d, want 2", m.Mepc)
	}
	if m.Instret != 0 {
		t.Fatalf("instret must not increment on trap")
	}
}

func TestBranchOffsetRange(t *testing.T) {
	for _, off := range []int32{-4096, -2, 0, 2, 4094} {
		m, bus := newMachine(t)
		m.PC = 0x100
		// beq x0, x0, off
		immBits := uint32(off)
		word := ((immBits>>12)&1)<<31 | ((immBits>>11)&1)<<7 | ((immBits>>5)&0x3F)<<25 |
			((immBits>>1)&0xF)<<8 | 0<<20 | 0<<15 | 0<<12 | 0x63
		_ = bus.LoadBytes(m.PC, u32le(word))
		res := m.Step()
		if res.Kind != vm.Retired {
			t.Fatalf("offset %d: got %+v", off, res)
		}
		want := uint32(0x100 + off)
		if m.PC != want {
			t.Fatalf("offset %d: pc = 0x%x, want 0x%x", off, m.PC, want)
		}
	}
}

func TestMretRestoresPrivAndPC(t *testing.T) {
	m, bus := newMachine(t)
	m.Mepc = 0x40
	m.SetMPP(vm.PrivUser)
	// mret
	_ = bus.LoadBytes(0, u32le(0x30200073))
	res := m.Step()
	if res.Kind != vm.Retired {
		t.Fatalf("got %+v", res)
	}
	if m.PC != 0x40 {
		t.Fatalf("pc = 0x%x, want 0x40", m.PC)
	}
	if m.Priv != vm.PrivUser {
		t.Fatalf("priv = %v, want User", m.Priv)
	}
}

func TestMisalignedLoadTrapsBeforeStateChange(t *testing.T) {
	m, bus := newMachine(t)
	// lw x5, 1(x0)  -- address 1 is misaligned for width 4
	word := encodeI(0x03, 2, 5, 0, 1)
	_ = bus.LoadBytes(0, u32le(word))
	before := m.GetReg(5)
	res := m.Step()
	if res.Kind != vm.Trapped || res.Cause != vm.CauseLoadAddressMisaligned {
		t.Fatalf("got %+v", res)
	}
	if m.GetReg(5) != before {
		t.Fatalf("x5 changed despite trap")
	}
}

func u32le(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}
