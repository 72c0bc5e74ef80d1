package loader

import (
	"fmt"

	"rv32emu/asm"
	"rv32emu/vm"
)

// Program is an assembled image wired into a ready-to-run Machine.
type Program struct {
	Machine    *vm.Machine
	Output     *asm.Output
	EntryPoint uint32
}

// Load assembles source and loads the resulting image into a fresh
// Machine backed by an MMIO-wrapped FlatMemory of memSize bytes. The
// entry point is the "_start" symbol if the program defines one,
// otherwise origin. x2 (sp) is initialized to stackTop.
func Load(source string, origin, memSize, stackTop uint32) (*Program, *asm.ErrorList) {
	out, errs := asm.Assemble(source, origin)
	if errs.HasErrors() {
		return nil, errs
	}

	if uint32(len(out.Image))+origin > memSize {
		errs.Errors = append(errs.Errors, &asm.Error{
			Line:    0,
			Message: fmt.Sprintf("assembled image (%d bytes at 0x%x) does not fit in %d bytes of memory", len(out.Image), origin, memSize),
		})
		return nil, errs
	}

	mem := vm.NewFlatMemory(memSize)
	if err := mem.LoadBytes(origin, out.Image); err != nil {
		errs.Errors = append(errs.Errors, &asm.Error{Line: 0, Message: err.Error()})
		return nil, errs
	}
	bus := vm.NewMMIOBus(mem)

	m := vm.NewMachine(bus)
	m.SetReg(2, stackTop)

	entry := origin
	if v, ok := out.Symbols["_start"]; ok {
		entry = v
	}
	m.PC = entry

	return &Program{Machine: m, Output: out, EntryPoint: entry}, errs
}
