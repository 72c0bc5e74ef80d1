package vm

// Step executes exactly one instruction:
//  1. cycle += 1 unconditionally.
//  2. pc alignment is checked before fetch.
//  3. fetch, decode, execute.
//  4. on success (no trap, no halt), pc advances by 4 unless the
//     instruction already redirected it, and instret += 1.
func (m *Machine) Step() StepResult {
	m.Cycle++

	if m.PC&0x3 != 0 {
		return m.trap(CauseInstructionAddressMisaligned, m.PC)
	}

	word, err := m.Mem.ReadInstruction(m.PC)
	if err != nil {
		return m.trap(CauseInstructionAccessFault, m.PC)
	}

	d := Decode(word)
	if d.Op == OpInvalid {
		return m.trap(CauseIllegalInstruction, word)
	}

	pcBefore := m.PC
	res := m.execute(d)

	if m.Trace != nil {
		m.Trace.Record(pcBefore, d)
	}

	if res.trapped {
		return res.result
	}
	if res.halted {
		return res.result
	}

	if !res.pcUpdated {
		m.PC += 4
	}
	m.Instret++
	return StepResult{Kind: Retired}
}

// Run steps the machine until it halts, traps, or maxSteps is exhausted
// (0 means unbounded). This is host-policy batching; the core itself has
// no notion of a run loop beyond Step.
// stopOnTrap controls whether a trap ends the batch or the guest is left
// to handle it via mtvec/mret and the batch continues.
func (m *Machine) Run(maxSteps uint64, stopOnTrap bool) []StepResult {
	var results []StepResult
	for i := uint64(0); maxSteps == 0 || i < maxSteps; i++ {
		r := m.Step()
		results = append(results, r)
		if r.Kind == Halted {
			break
		}
		if r.Kind == Trapped && stopOnTrap {
			break
		}
	}
	return results
}
