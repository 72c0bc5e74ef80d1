package vm

// StepKind distinguishes the three possible outcomes of a single Step,
// modeled as a closed sum type: retirement, a synchronous trap, or a
// debugger halt. Only the fields relevant to Kind are
// meaningful on any given StepResult.
type StepKind int

const (
	Retired StepKind = iota
	Trapped
	Halted
)

func (k StepKind) String() string {
	switch k {
	case Retired:
		return "retired"
	case Trapped:
		return "trapped"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// StepResult is returned by every call to Step.
type StepResult struct {
	Kind  StepKind
	Cause Cause  // valid when Kind == Trapped
	EPC   uint32 // valid when Kind == Trapped: the faulting instruction's PC
}

// trap delivers a synchronous exception: saves mepc, mcause, mtval and
// the pre-trap privilege into mstatus.MPP, raises
// privilege to Machine, and redirects pc to the direct-mode trap vector.
func (m *Machine) trap(cause Cause, tval uint32) StepResult {
	m.Mepc = m.PC
	m.Mcause = uint32(cause)
	m.Mtval = tval
	m.SetMPP(m.Priv)
	m.Priv = PrivMachine
	m.PC = m.Mtvec &^ 0x3
	return StepResult{Kind: Trapped, Cause: cause, EPC: m.Mepc}
}

// faultCause maps a Memory fault, observed while servicing a load or store,
// to the matching trap cause.
func faultCause(err error, isStore bool) Cause {
	me, ok := err.(*MemError)
	misaligned := ok && me.Fault == FaultMisaligned
	switch {
	case isStore && misaligned:
		return CauseStoreAddressMisaligned
	case isStore:
		return CauseStoreAccessFault
	case misaligned:
		return CauseLoadAddressMisaligned
	default:
		return CauseLoadAccessFault
	}
}
