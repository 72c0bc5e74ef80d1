package asm

import (
	"fmt"

	"rv32emu/vm"
)

const (
	opcodeOP     = 0x33
	opcodeOPIMM  = 0x13
	opcodeLUI    = 0x37
	opcodeAUIPC  = 0x17
	opcodeJAL    = 0x6F
	opcodeJALR   = 0x67
	opcodeBRANCH = 0x63
	opcodeLOAD   = 0x03
	opcodeSTORE  = 0x23
	opcodeMISC   = 0x0F
	opcodeSYSTEM = 0x73
)

var rFields = map[vm.Op][2]uint32{ // funct3, funct7
	vm.OpADD: {0x0, 0x00}, vm.OpSUB: {0x0, 0x20}, vm.OpSLL: {0x1, 0x00},
	vm.OpSLT: {0x2, 0x00}, vm.OpSLTU: {0x3, 0x00}, vm.OpXOR: {0x4, 0x00},
	vm.OpSRL: {0x5, 0x00}, vm.OpSRA: {0x5, 0x20}, vm.OpOR: {0x6, 0x00}, vm.OpAND: {0x7, 0x00},
}

var iFields = map[vm.Op]uint32{ // funct3
	vm.OpADDI: 0x0, vm.OpSLTI: 0x2, vm.OpSLTIU: 0x3, vm.OpXORI: 0x4, vm.OpORI: 0x6, vm.OpANDI: 0x7,
}

var ishFields = map[vm.Op][2]uint32{ // funct3, funct7
	vm.OpSLLI: {0x1, 0x00}, vm.OpSRLI: {0x5, 0x00}, vm.OpSRAI: {0x5, 0x20},
}

var branchFields = map[vm.Op]uint32{ // funct3
	vm.OpBEQ: 0x0, vm.OpBNE: 0x1, vm.OpBLT: 0x4, vm.OpBGE: 0x5, vm.OpBLTU: 0x6, vm.OpBGEU: 0x7,
}

var loadFields = map[vm.Op]uint32{ // funct3
	vm.OpLB: 0x0, vm.OpLH: 0x1, vm.OpLW: 0x2, vm.OpLBU: 0x4, vm.OpLHU: 0x5,
}

var storeFields = map[vm.Op]uint32{ // funct3
	vm.OpSB: 0x0, vm.OpSH: 0x1, vm.OpSW: 0x2,
}

var csrFields = map[vm.Op]uint32{ // funct3
	vm.OpCSRRW: 0x1, vm.OpCSRRS: 0x2, vm.OpCSRRC: 0x3,
	vm.OpCSRRWI: 0x5, vm.OpCSRRSI: 0x6, vm.OpCSRRCI: 0x7,
}

func fitsSigned(v int64, bits int) bool {
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}

func fitsUnsigned(v int64, bits int) bool {
	return v >= 0 && v < int64(1)<<bits
}

// encodeWord packs l into a 32-bit instruction word, given imm, the
// already-evaluated (and, for branch/jump targets, already converted to a
// pc-relative offset) value of l.Imm.
func encodeWord(l lowered, imm int64) (uint32, error) {
	switch l.Format {
	case fmtR:
		f, ok := rFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not an R-type op", l.Op)
		}
		return f[1]<<25 | l.Rs2<<20 | l.Rs1<<15 | f[0]<<12 | l.Rd<<7 | opcodeOP, nil

	case fmtI:
		funct3, ok := iFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not an I-type op", l.Op)
		}
		if !fitsSigned(imm, 12) {
			return 0, fmt.Errorf("immediate %d out of range for 12-bit field", imm)
		}
		return (uint32(imm)&0xFFF)<<20 | l.Rs1<<15 | funct3<<12 | l.Rd<<7 | opcodeOPIMM, nil

	case fmtISH:
		f, ok := ishFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not a shift-immediate op", l.Op)
		}
		if !fitsUnsigned(imm, 5) {
			return 0, fmt.Errorf("shift amount %d out of range", imm)
		}
		return f[1]<<25 | uint32(imm)<<20 | l.Rs1<<15 | f[0]<<12 | l.Rd<<7 | opcodeOPIMM, nil

	case fmtU:
		// imm is the 20-bit upper-immediate value (unshifted), same
		// convention whether it came from a %hi/%pcrel_hi modifier or a
		// directly-written constant.
		return (uint32(imm)&0xFFFFF)<<12 | l.Rd<<7 | opcodeForU(l.Op), nil

	case fmtJ:
		if !fitsSigned(imm, 21) || imm&1 != 0 {
			return 0, fmt.Errorf("jal target offset %d out of range or misaligned", imm)
		}
		u := uint32(imm)
		bits := (u>>20&1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&1)<<20 | (u>>12&0xFF)<<12
		return bits | l.Rd<<7 | opcodeJAL, nil

	case fmtJALR:
		if !fitsSigned(imm, 12) {
			return 0, fmt.Errorf("jalr offset %d out of range", imm)
		}
		return (uint32(imm)&0xFFF)<<20 | l.Rs1<<15 | l.Rd<<7 | opcodeJALR, nil

	case fmtB:
		if !fitsSigned(imm, 13) || imm&1 != 0 {
			return 0, fmt.Errorf("branch target offset %d out of range or misaligned", imm)
		}
		funct3, ok := branchFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not a branch op", l.Op)
		}
		u := uint32(imm)
		bits := (u>>12&1)<<31 | (u>>5&0x3F)<<25 | l.Rs2<<20 | l.Rs1<<15 | funct3<<12 | (u>>1&0xF)<<8 | (u>>11&1)<<7
		return bits | opcodeBRANCH, nil

	case fmtLOAD:
		funct3, ok := loadFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not a load op", l.Op)
		}
		if !fitsSigned(imm, 12) {
			return 0, fmt.Errorf("load offset %d out of range", imm)
		}
		return (uint32(imm)&0xFFF)<<20 | l.Rs1<<15 | funct3<<12 | l.Rd<<7 | opcodeLOAD, nil

	case fmtSTORE:
		funct3, ok := storeFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not a store op", l.Op)
		}
		if !fitsSigned(imm, 12) {
			return 0, fmt.Errorf("store offset %d out of range", imm)
		}
		u := uint32(imm)
		return (u>>5&0x7F)<<25 | l.Rs2<<20 | l.Rs1<<15 | funct3<<12 | (u&0x1F)<<7 | opcodeSTORE, nil

	case fmtCSR:
		funct3, ok := csrFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not a CSR op", l.Op)
		}
		return l.Csr<<20 | l.Rs1<<15 | funct3<<12 | l.Rd<<7 | opcodeSYSTEM, nil

	case fmtCSRI:
		funct3, ok := csrFields[l.Op]
		if !ok {
			return 0, fmt.Errorf("%s: not a CSR op", l.Op)
		}
		if !fitsUnsigned(int64(l.Uimm), 5) {
			return 0, fmt.Errorf("csr uimm %d out of range", l.Uimm)
		}
		return l.Csr<<20 | l.Uimm<<15 | funct3<<12 | l.Rd<<7 | opcodeSYSTEM, nil

	case fmtSYS:
		switch l.Op {
		case vm.OpECALL:
			return 0x000<<20 | opcodeSYSTEM, nil
		case vm.OpEBREAK:
			return 0x001<<20 | opcodeSYSTEM, nil
		case vm.OpMRET:
			return 0x302<<20 | opcodeSYSTEM, nil
		case vm.OpFENCE:
			return 0x0FF0_0000 | opcodeMISC, nil
		}
		return 0, fmt.Errorf("%s: not a no-operand op", l.Op)
	}
	return 0, fmt.Errorf("unhandled instruction format")
}

func opcodeForU(op vm.Op) uint32 {
	if op == vm.OpAUIPC {
		return opcodeAUIPC
	}
	return opcodeLUI
}
