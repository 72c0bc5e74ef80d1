package asm

import (
	"fmt"
	"strings"

	"rv32emu/vm"
)

// Disassemble renders image as a textual dump of address, raw bytes,
// mnemonic and resolved operands, annotating any address that a symbol
// names. It reuses vm.Decode so the disassembly can never disagree with
// how the interpreter will actually execute the image.
func Disassemble(image []byte, origin uint32, symbols map[string]uint32) string {
	labelAt := make(map[uint32][]string, len(symbols))
	for name, addr := range symbols {
		labelAt[addr] = append(labelAt[addr], name)
	}

	var b strings.Builder
	for off := 0; off+4 <= len(image); off += 4 {
		addr := origin + uint32(off)
		if names, ok := labelAt[addr]; ok {
			for _, n := range names {
				fmt.Fprintf(&b, "%s:\n", n)
			}
		}
		word := uint32(image[off]) | uint32(image[off+1])<<8 | uint32(image[off+2])<<16 | uint32(image[off+3])<<24
		d := vm.Decode(word)
		fmt.Fprintf(&b, "%08x:\t%08x\t%s\n", addr, word, formatDecoded(d, addr, labelAt))
	}
	return b.String()
}

func reg(n uint32) string { return vm.RegNames[n] }

func formatDecoded(d vm.Decoded, addr uint32, labelAt map[uint32][]string) string {
	op := d.Op.String()
	switch d.Op {
	case vm.OpADD, vm.OpSUB, vm.OpSLL, vm.OpSLT, vm.OpSLTU, vm.OpXOR, vm.OpSRL, vm.OpSRA, vm.OpOR, vm.OpAND:
		return fmt.Sprintf("%s\t%s, %s, %s", op, reg(d.Rd), reg(d.Rs1), reg(d.Rs2))

	case vm.OpADDI, vm.OpSLTI, vm.OpSLTIU, vm.OpXORI, vm.OpORI, vm.OpANDI, vm.OpSLLI, vm.OpSRLI, vm.OpSRAI:
		return fmt.Sprintf("%s\t%s, %s, %d", op, reg(d.Rd), reg(d.Rs1), d.Imm)

	case vm.OpLUI, vm.OpAUIPC:
		return fmt.Sprintf("%s\t%s, 0x%x", op, reg(d.Rd), uint32(d.Imm)>>12)

	case vm.OpBEQ, vm.OpBNE, vm.OpBLT, vm.OpBGE, vm.OpBLTU, vm.OpBGEU:
		target := addr + uint32(d.Imm)
		return fmt.Sprintf("%s\t%s, %s, %s", op, reg(d.Rs1), reg(d.Rs2), targetLabel(target, labelAt))

	case vm.OpJAL:
		target := addr + uint32(d.Imm)
		return fmt.Sprintf("%s\t%s, %s", op, reg(d.Rd), targetLabel(target, labelAt))

	case vm.OpJALR:
		return fmt.Sprintf("%s\t%s, %d(%s)", op, reg(d.Rd), d.Imm, reg(d.Rs1))

	case vm.OpLB, vm.OpLH, vm.OpLW, vm.OpLBU, vm.OpLHU:
		return fmt.Sprintf("%s\t%s, %d(%s)", op, reg(d.Rd), d.Imm, reg(d.Rs1))

	case vm.OpSB, vm.OpSH, vm.OpSW:
		return fmt.Sprintf("%s\t%s, %d(%s)", op, reg(d.Rs2), d.Imm, reg(d.Rs1))

	case vm.OpFENCE, vm.OpECALL, vm.OpEBREAK, vm.OpMRET:
		return op

	case vm.OpCSRRW, vm.OpCSRRS, vm.OpCSRRC:
		return fmt.Sprintf("%s\t%s, 0x%x, %s", op, reg(d.Rd), d.Csr, reg(d.Rs1))

	case vm.OpCSRRWI, vm.OpCSRRSI, vm.OpCSRRCI:
		return fmt.Sprintf("%s\t%s, 0x%x, %d", op, reg(d.Rd), d.Csr, d.Uimm)

	default:
		return "invalid"
	}
}

func targetLabel(addr uint32, labelAt map[uint32][]string) string {
	if names, ok := labelAt[addr]; ok {
		return names[0]
	}
	return fmt.Sprintf("0x%x", addr)
}
