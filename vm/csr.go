package vm

// csrReadOnly reports whether a CSR address is read-only (the counters).
func csrReadOnly(addr uint32) bool {
	switch addr {
	case CSRCycle, CSRCycleH, CSRInstret, CSRInstretH:
		return true
	default:
		return false
	}
}

// csrImplemented reports whether addr is one of the CSRs this machine
// implements.
func csrImplemented(addr uint32) bool {
	switch addr {
	case CSRMstatus, CSRMscratch, CSRMepc, CSRMcause, CSRMtval, CSRMtvec,
		CSRCycle, CSRCycleH, CSRInstret, CSRInstretH:
		return true
	default:
		return false
	}
}

// csrAccessible reports whether the current privilege may touch addr at
// all. All implemented CSRs live at 0x300-0x3FF (M-mode) or 0xC00-0xCFF
// (the unprivileged-readable counters).
func (m *Machine) csrAccessible(addr uint32) bool {
	if addr >= 0x300 && addr <= 0x3FF {
		return m.Priv == PrivMachine
	}
	return true
}

func (m *Machine) csrRead(addr uint32) uint32 {
	switch addr {
	case CSRMstatus:
		return m.Mstatus
	case CSRMscratch:
		return m.Mscratch
	case CSRMtvec:
		return m.Mtvec
	case CSRMepc:
		return m.Mepc
	case CSRMtval:
		return m.Mtval
	case CSRMcause:
		return m.Mcause
	case CSRCycle:
		return uint32(m.Cycle)
	case CSRCycleH:
		return uint32(m.Cycle >> 32)
	case CSRInstret:
		return uint32(m.Instret)
	case CSRInstretH:
		return uint32(m.Instret >> 32)
	default:
		return 0
	}
}

func (m *Machine) csrWrite(addr uint32, value uint32) {
	switch addr {
	case CSRMstatus:
		m.Mstatus = 0
		m.SetMPP(Privilege((value >> 11) & 0x3))
	case CSRMscratch:
		m.Mscratch = value
	case CSRMtvec:
		m.Mtvec = value
	case CSRMepc:
		m.Mepc = value
	case CSRMtval:
		m.Mtval = value
	case CSRMcause:
		m.Mcause = value
	}
}

// accessCSR implements the six Zicsr instructions uniformly: read the old
// value (unless suppressed), compute the new value per op, write it back
// (unless suppressed), and return the old value for rd. Suppression
// rules: csrrw/csrrwi with rd=x0 skip the read; csrrs/csrrc with rs1=x0
// and csrrsi/csrrci with uimm=0 skip the write.
func (m *Machine) accessCSR(d Decoded) (StepResult, bool) {
	addr := d.Csr
	if !csrImplemented(addr) || !m.csrAccessible(addr) {
		return m.trap(CauseIllegalInstruction, d.Word), false
	}

	var operand uint32
	var suppressWrite bool
	if d.IsCSRI {
		operand = d.Uimm
		suppressWrite = d.Uimm == 0 && d.Op != OpCSRRWI
	} else {
		operand = m.GetReg(d.Rs1)
		suppressWrite = d.Rs1 == 0 && d.Op != OpCSRRW
	}
	suppressRead := d.Rd == 0 && (d.Op == OpCSRRW || d.Op == OpCSRRWI)

	if !suppressWrite && csrReadOnly(addr) {
		return m.trap(CauseIllegalInstruction, d.Word), false
	}

	var old uint32
	if !suppressRead {
		old = m.csrRead(addr)
	}

	if !suppressWrite {
		var next uint32
		switch d.Op {
		case OpCSRRW, OpCSRRWI:
			next = operand
		case OpCSRRS, OpCSRRSI:
			next = m.csrRead(addr) | operand
		case OpCSRRC, OpCSRRCI:
			next = m.csrRead(addr) &^ operand
		}
		m.csrWrite(addr, next)
	}

	if !suppressRead {
		m.SetReg(d.Rd, old)
	}
	return StepResult{}, true
}
