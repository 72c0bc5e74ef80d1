package integration_test

import (
	"strings"
	"testing"

	"rv32emu/loader"
	"rv32emu/vm"
)

func mustLoad(t *testing.T, src string) *loader.Program {
	t.Helper()
	prog, errs := loader.Load(src, 0, 1<<16, 1<<16)
	if errs.HasErrors() {
		t.Fatalf("unexpected assembly errors: %v", errs)
	}
	return prog
}

func TestMinimalProgramHalts(t *testing.T) {
	prog := mustLoad(t, "ebreak\n")
	r := prog.Machine.Step()
	if r.Kind != vm.Halted {
		t.Fatalf("expected ebreak to halt immediately, got %v", r.Kind)
	}
}

func TestLoopAndStoreCountsInstretAccurately(t *testing.T) {
	src := `
	addi t0, zero, 0
	addi t1, zero, 10
loop:
	addi t0, t0, 1
	blt t0, t1, loop
	ebreak
`
	prog := mustLoad(t, src)
	var steps uint64
	for {
		r := prog.Machine.Step()
		steps++
		if r.Kind == vm.Halted {
			break
		}
		if r.Kind == vm.Trapped {
			t.Fatalf("unexpected trap: %s", r.Cause)
		}
		if steps > 1000 {
			t.Fatalf("loop did not terminate")
		}
	}
	if prog.Machine.GetReg(5) != 10 {
		t.Fatalf("expected t0 == 10 after loop, got %d", prog.Machine.GetReg(5))
	}
	// The final ebreak step halts without retiring, so instret is one less
	// than the number of steps taken.
	if prog.Machine.Instret != steps-1 {
		t.Fatalf("expected instret to track retired instruction count, got instret=%d steps=%d",
			prog.Machine.Instret, steps)
	}
}

func TestMMIOConsoleOutputAccumulatesWrittenBytes(t *testing.T) {
	src := `
	lui t0, %hi(0x10000000)
	addi t0, t0, %lo(0x10000000)
	addi t1, zero, 72
	sb t1, 0(t0)
	addi t1, zero, 73
	sb t1, 0(t0)
	ebreak
`
	prog := mustLoad(t, src)
	for {
		r := prog.Machine.Step()
		if r.Kind != vm.Retired {
			break
		}
	}
	bus, ok := prog.Machine.Mem.(*vm.MMIOBus)
	if !ok {
		t.Fatalf("expected an MMIO bus")
	}
	out := bus.Console().String()
	if out != "HI" {
		t.Fatalf("expected console output %q, got %q", "HI", out)
	}
}

func TestTrapDeliveryAndMretReturn(t *testing.T) {
	// mepc holds the ecall's own address, so the handler steps it past the
	// ecall before mret returns there.
	src := `
	lui t0, %hi(handler)
	addi t0, t0, %lo(handler)
	csrrw zero, mtvec, t0
	ecall
	addi t2, zero, 99
	ebreak
handler:
	addi t1, zero, 1
	csrrs t3, mepc, zero
	addi t3, t3, 4
	csrrw zero, mepc, t3
	mret
`
	prog := mustLoad(t, src)
	var trapped bool
	for i := 0; i < 100; i++ {
		r := prog.Machine.Step()
		if r.Kind == vm.Trapped {
			trapped = true
			if r.Cause != vm.CauseMachineECALL {
				t.Fatalf("expected machine ecall cause, got %s", r.Cause)
			}
		}
		if r.Kind == vm.Halted {
			break
		}
	}
	if !trapped {
		t.Fatalf("expected the ecall to trap")
	}
	if prog.Machine.GetReg(6) != 1 {
		t.Fatalf("expected handler to run and set t1 == 1, got %d", prog.Machine.GetReg(6))
	}
	if prog.Machine.GetReg(7) != 99 {
		t.Fatalf("expected execution to resume after ecall and set t2 == 99, got %d", prog.Machine.GetReg(7))
	}
}

func TestMisalignedJalrTargetTraps(t *testing.T) {
	src := `
	addi t0, zero, 2
	jalr zero, t0, 0
	ebreak
`
	prog := mustLoad(t, src)
	prog.Machine.Step()      // addi
	prog.Machine.Step()      // jalr clears only bit 0, so pc = 2
	r := prog.Machine.Step() // fetch at the misaligned pc
	if r.Kind != vm.Trapped {
		t.Fatalf("expected the step after a jalr to a misaligned target to trap, got %v", r.Kind)
	}
	if r.Cause != vm.CauseInstructionAddressMisaligned {
		t.Fatalf("expected misaligned instruction fetch cause, got %s", r.Cause)
	}
}

func TestAssemblerReportsErrorsWithLineNumbers(t *testing.T) {
	src := "addi t0, zero, 1\nbogus_mnemonic x1, x2\naddi t1, zero, 2\n"
	_, errs := loader.Load(src, 0, 4096, 4096)
	if !errs.HasErrors() {
		t.Fatalf("expected assembly to fail on an unknown mnemonic")
	}
	found := false
	for _, e := range errs.Errors {
		if e.Line == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an error reported on line 2, got %v", errs.Errors)
	}
	if !strings.Contains(errs.Error(), "2") {
		t.Fatalf("expected the formatted error text to mention line 2: %s", errs.Error())
	}
}
