package asm

import "rv32emu/vm"

// instFormat is the operand-syntax shape of a real instruction; it drives
// both operand parsing and encoding, and is shared with the opcode table
// so the assembler can never encode a mnemonic the interpreter wouldn't
// recognize (both sides key off vm.Op).
type instFormat int

const (
	fmtR    instFormat = iota // rd, rs1, rs2
	fmtI                      // rd, rs1, imm
	fmtISH                    // rd, rs1, shamt (0-31)
	fmtLOAD                   // rd, imm(rs1)
	fmtSTORE                  // rs2, imm(rs1)
	fmtB                      // rs1, rs2, target
	fmtU                      // rd, imm
	fmtJ                      // rd, target
	fmtJALR                   // rd, imm(rs1)  or  rd, rs1, imm
	fmtCSR                    // rd, csr, rs1
	fmtCSRI                   // rd, csr, uimm
	fmtSYS                    // no operands
)

type instInfo struct {
	Op     vm.Op
	Format instFormat
}

var realInstructions = map[string]instInfo{
	"add": {vm.OpADD, fmtR}, "sub": {vm.OpSUB, fmtR}, "sll": {vm.OpSLL, fmtR},
	"slt": {vm.OpSLT, fmtR}, "sltu": {vm.OpSLTU, fmtR}, "xor": {vm.OpXOR, fmtR},
	"srl": {vm.OpSRL, fmtR}, "sra": {vm.OpSRA, fmtR}, "or": {vm.OpOR, fmtR}, "and": {vm.OpAND, fmtR},

	"addi": {vm.OpADDI, fmtI}, "slti": {vm.OpSLTI, fmtI}, "sltiu": {vm.OpSLTIU, fmtI},
	"xori": {vm.OpXORI, fmtI}, "ori": {vm.OpORI, fmtI}, "andi": {vm.OpANDI, fmtI},
	"slli": {vm.OpSLLI, fmtISH}, "srli": {vm.OpSRLI, fmtISH}, "srai": {vm.OpSRAI, fmtISH},

	"lui": {vm.OpLUI, fmtU}, "auipc": {vm.OpAUIPC, fmtU},

	"beq": {vm.OpBEQ, fmtB}, "bne": {vm.OpBNE, fmtB}, "blt": {vm.OpBLT, fmtB},
	"bge": {vm.OpBGE, fmtB}, "bltu": {vm.OpBLTU, fmtB}, "bgeu": {vm.OpBGEU, fmtB},

	"jal":  {vm.OpJAL, fmtJ},
	"jalr": {vm.OpJALR, fmtJALR},

	"lb": {vm.OpLB, fmtLOAD}, "lh": {vm.OpLH, fmtLOAD}, "lw": {vm.OpLW, fmtLOAD},
	"lbu": {vm.OpLBU, fmtLOAD}, "lhu": {vm.OpLHU, fmtLOAD},

	"sb": {vm.OpSB, fmtSTORE}, "sh": {vm.OpSH, fmtSTORE}, "sw": {vm.OpSW, fmtSTORE},

	"fence": {vm.OpFENCE, fmtSYS}, "ecall": {vm.OpECALL, fmtSYS},
	"ebreak": {vm.OpEBREAK, fmtSYS}, "mret": {vm.OpMRET, fmtSYS},

	"csrrw": {vm.OpCSRRW, fmtCSR}, "csrrs": {vm.OpCSRRS, fmtCSR}, "csrrc": {vm.OpCSRRC, fmtCSR},
	"csrrwi": {vm.OpCSRRWI, fmtCSRI}, "csrrsi": {vm.OpCSRRSI, fmtCSRI}, "csrrci": {vm.OpCSRRCI, fmtCSRI},
}

// namedCSRs lets instructions reference CSRs by name instead of address.
var namedCSRs = map[string]uint32{
	"mstatus": vm.CSRMstatus, "mtvec": vm.CSRMtvec, "mscratch": vm.CSRMscratch,
	"mepc": vm.CSRMepc, "mcause": vm.CSRMcause, "mtval": vm.CSRMtval,
	"cycle": vm.CSRCycle, "cycleh": vm.CSRCycleH, "instret": vm.CSRInstret, "instreth": vm.CSRInstretH,
}
