package vm

// exec carries the outcome of executing one decoded instruction: whether a
// trap or halt occurred, and whether the PC was already redirected (branch,
// jump, mret) so Step knows not to apply the default pc+4.
type exec struct {
	result    StepResult
	trapped   bool
	halted    bool
	pcUpdated bool
}

func retired() exec { return exec{} }

func (m *Machine) execute(d Decoded) exec {
	switch d.Op {
	case OpADD, OpSUB, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpSRA, OpOR, OpAND:
		return m.execALUReg(d)

	case OpADDI, OpSLTI, OpSLTIU, OpXORI, OpORI, OpANDI, OpSLLI, OpSRLI, OpSRAI:
		return m.execALUImm(d)

	case OpLUI:
		m.SetReg(d.Rd, uint32(d.Imm))
		return retired()

	case OpAUIPC:
		m.SetReg(d.Rd, m.PC+uint32(d.Imm))
		return retired()

	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return m.execBranch(d)

	case OpJAL:
		m.SetReg(d.Rd, m.PC+4)
		m.PC = m.PC + uint32(d.Imm)
		return exec{pcUpdated: true}

	case OpJALR:
		target := (m.GetReg(d.Rs1) + uint32(d.Imm)) &^ 1
		m.SetReg(d.Rd, m.PC+4)
		m.PC = target
		return exec{pcUpdated: true}

	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return m.execLoad(d)

	case OpSB, OpSH, OpSW:
		return m.execStore(d)

	case OpFENCE:
		return retired()

	case OpECALL:
		var cause Cause
		if m.Priv == PrivMachine {
			cause = CauseMachineECALL
		} else {
			cause = CauseUserECALL
		}
		res := m.trap(cause, 0)
		return exec{result: res, trapped: true, pcUpdated: true}

	case OpEBREAK:
		return exec{result: StepResult{Kind: Halted}, halted: true, pcUpdated: true}

	case OpMRET:
		if m.Priv != PrivMachine {
			res := m.trap(CauseIllegalInstruction, d.Word)
			return exec{result: res, trapped: true, pcUpdated: true}
		}
		m.PC = m.Mepc
		m.Priv = m.MPP()
		m.SetMPP(PrivUser)
		return exec{pcUpdated: true}

	case OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		res, ok := m.accessCSR(d)
		if !ok {
			return exec{result: res, trapped: true, pcUpdated: true}
		}
		return retired()

	default:
		res := m.trap(CauseIllegalInstruction, d.Word)
		return exec{result: res, trapped: true, pcUpdated: true}
	}
}

func (m *Machine) execALUReg(d Decoded) exec {
	a, b := m.GetReg(d.Rs1), m.GetReg(d.Rs2)
	var v uint32
	switch d.Op {
	case OpADD:
		v = a + b
	case OpSUB:
		v = a - b
	case OpSLL:
		v = a << (b & 0x1F)
	case OpSLT:
		v = boolToU32(int32(a) < int32(b))
	case OpSLTU:
		v = boolToU32(a < b)
	case OpXOR:
		v = a ^ b
	case OpSRL:
		v = a >> (b & 0x1F)
	case OpSRA:
		v = uint32(int32(a) >> (b & 0x1F))
	case OpOR:
		v = a | b
	case OpAND:
		v = a & b
	}
	m.SetReg(d.Rd, v)
	return retired()
}

func (m *Machine) execALUImm(d Decoded) exec {
	a := m.GetReg(d.Rs1)
	shamt := uint32(d.Imm) & 0x1F
	var v uint32
	switch d.Op {
	case OpADDI:
		v = a + uint32(d.Imm)
	case OpSLTI:
		v = boolToU32(int32(a) < d.Imm)
	case OpSLTIU:
		v = boolToU32(a < uint32(d.Imm))
	case OpXORI:
		v = a ^ uint32(d.Imm)
	case OpORI:
		v = a | uint32(d.Imm)
	case OpANDI:
		v = a & uint32(d.Imm)
	case OpSLLI:
		v = a << shamt
	case OpSRLI:
		v = a >> shamt
	case OpSRAI:
		v = uint32(int32(a) >> shamt)
	}
	m.SetReg(d.Rd, v)
	return retired()
}

func (m *Machine) execBranch(d Decoded) exec {
	a, b := m.GetReg(d.Rs1), m.GetReg(d.Rs2)
	var taken bool
	switch d.Op {
	case OpBEQ:
		taken = a == b
	case OpBNE:
		taken = a != b
	case OpBLT:
		taken = int32(a) < int32(b)
	case OpBGE:
		taken = int32(a) >= int32(b)
	case OpBLTU:
		taken = a < b
	case OpBGEU:
		taken = a >= b
	}
	if taken {
		m.PC = m.PC + uint32(d.Imm)
		return exec{pcUpdated: true}
	}
	return retired()
}

func (m *Machine) execLoad(d Decoded) exec {
	addr := m.GetReg(d.Rs1) + uint32(d.Imm)
	width := loadWidth(d.Op)
	raw, err := m.Mem.Read(addr, width)
	if err != nil {
		res := m.trap(faultCause(err, false), addr)
		return exec{result: res, trapped: true, pcUpdated: true}
	}
	var v uint32
	switch d.Op {
	case OpLB:
		v = uint32(int32(int8(raw)))
	case OpLH:
		v = uint32(int32(int16(raw)))
	case OpLW, OpLBU, OpLHU:
		v = raw
	}
	m.SetReg(d.Rd, v)
	return retired()
}

func loadWidth(op Op) int {
	switch op {
	case OpLB, OpLBU:
		return 1
	case OpLH, OpLHU:
		return 2
	default:
		return 4
	}
}

func (m *Machine) execStore(d Decoded) exec {
	addr := m.GetReg(d.Rs1) + uint32(d.Imm)
	width := map[Op]int{OpSB: 1, OpSH: 2, OpSW: 4}[d.Op]
	value := m.GetReg(d.Rs2)
	if err := m.Mem.Write(addr, width, value); err != nil {
		res := m.trap(faultCause(err, true), addr)
		return exec{result: res, trapped: true, pcUpdated: true}
	}
	return retired()
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
