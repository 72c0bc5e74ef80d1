package vm

// Machine holds all architectural state: general-purpose registers, pc,
// current privilege, the implemented CSRs, the cycle/instret counters, and
// the Memory capability instructions execute against.
type Machine struct {
	Regs [32]uint32
	PC   uint32
	Priv Privilege

	Mstatus  uint32 // only bits 11:12 (MPP) are meaningful
	Mscratch uint32
	Mtvec    uint32
	Mepc     uint32
	Mtval    uint32
	Mcause   uint32

	Cycle   uint64
	Instret uint64

	Mem Memory

	Trace *Trace // optional execution trace, nil when disabled
}

// NewMachine constructs a Machine with all registers and CSRs zero, pc = 0,
// and privilege Machine, bound to mem.
func NewMachine(mem Memory) *Machine {
	if mem == nil {
		panic("vm: NewMachine requires non-nil Memory")
	}
	return &Machine{Priv: PrivMachine, Mem: mem}
}

// GetReg returns the value of register r (0-31). x0 always reads zero.
func (m *Machine) GetReg(r uint32) uint32 {
	if r == 0 {
		return 0
	}
	return m.Regs[r]
}

// SetReg writes register r, discarding writes to x0, which is hardwired zero.
func (m *Machine) SetReg(r uint32, v uint32) {
	if r == 0 {
		return
	}
	m.Regs[r] = v
}

// MPP extracts the Machine-Previous-Privilege field of mstatus.
func (m *Machine) MPP() Privilege {
	return Privilege((m.Mstatus >> 11) & 0x3)
}

// SetMPP writes the MPP field of mstatus, leaving all other bits (modeled
// as always zero) untouched.
func (m *Machine) SetMPP(p Privilege) {
	m.Mstatus = (m.Mstatus &^ (0x3 << 11)) | (uint32(p) << 11)
}

// StateDump is the pure, host-facing snapshot returned by DumpState. The
// core never retains or diffs a prior dump itself; any host that wants
// change-highlighting keeps its own previous StateDump and
// diffs two values.
type StateDump struct {
	PC   uint32
	Regs [32]uint32
	Priv Privilege
	MPP  Privilege

	Mscratch uint32
	Mtvec    uint32
	Mepc     uint32
	Mtval    uint32
	Mcause   uint32

	Cycle   uint64
	Instret uint64
}

// DumpState returns a value snapshot of all architectural state.
func (m *Machine) DumpState() StateDump {
	return StateDump{
		PC:       m.PC,
		Regs:     m.Regs,
		Priv:     m.Priv,
		MPP:      m.MPP(),
		Mscratch: m.Mscratch,
		Mtvec:    m.Mtvec,
		Mepc:     m.Mepc,
		Mtval:    m.Mtval,
		Mcause:   m.Mcause,
		Cycle:    m.Cycle,
		Instret:  m.Instret,
	}
}
