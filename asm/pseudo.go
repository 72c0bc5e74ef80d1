package asm

import (
	"fmt"

	"rv32emu/vm"
)

// exprIsConst reports whether e can be folded to a value without consulting
// the symbol table (used to decide li's emitted width in pass 1, before
// forward-referenced symbols are necessarily defined).
func exprIsConst(e *Expr) bool {
	switch e.Kind {
	case exprConst:
		return true
	case exprAdd, exprSub:
		return exprIsConst(e.Left) && exprIsConst(e.Right)
	default:
		return false
	}
}

func foldConst(e *Expr) int64 {
	switch e.Kind {
	case exprConst:
		return e.Value
	case exprAdd:
		return foldConst(e.Left) + foldConst(e.Right)
	case exprSub:
		return foldConst(e.Left) - foldConst(e.Right)
	}
	return 0
}

func constExpr(v int64) *Expr { return &Expr{Kind: exprConst, Value: v} }

func regExpr(name string) *Expr { return &Expr{Kind: exprSymbol, Symbol: name} }

// lowerInstruction expands st (a real instruction or a pseudo-instruction)
// into one or more real instructions. The structural shape (how many
// words it occupies) must not depend on symbol values, since pass 1 has
// to reserve the same width pass 2 later fills in.
func lowerInstruction(st *statement, errs *ErrorList) []lowered {
	ops := st.Operands
	line := st.Line

	if info, ok := realInstructions[st.Name]; ok {
		return lowerReal(info, ops, line, errs)
	}

	switch st.Name {
	case "nop":
		return []lowered{{Op: vm.OpADDI, Rd: 0, Rs1: 0, Imm: constExpr(0), Format: fmtI}}

	case "mv":
		if len(ops) != 2 {
			errs.add(line, "mv expects 2 operands")
			return nil
		}
		rd, err1 := parseReg(ops[0])
		rs, err2 := parseReg(ops[1])
		if err1 != nil || err2 != nil {
			errs.add(line, "mv: bad register operand")
			return nil
		}
		return []lowered{{Op: vm.OpADDI, Rd: rd, Rs1: rs, Imm: constExpr(0), Format: fmtI}}

	case "not":
		rd, rs, ok := twoRegs(ops, line, errs, "not")
		if !ok {
			return nil
		}
		return []lowered{{Op: vm.OpXORI, Rd: rd, Rs1: rs, Imm: constExpr(-1), Format: fmtI}}

	case "neg":
		rd, rs, ok := twoRegs(ops, line, errs, "neg")
		if !ok {
			return nil
		}
		return []lowered{{Op: vm.OpSUB, Rd: rd, Rs1: 0, Rs2: rs, Format: fmtR}}

	case "seqz":
		rd, rs, ok := twoRegs(ops, line, errs, "seqz")
		if !ok {
			return nil
		}
		return []lowered{{Op: vm.OpSLTIU, Rd: rd, Rs1: rs, Imm: constExpr(1), Format: fmtI}}

	case "snez":
		rd, rs, ok := twoRegs(ops, line, errs, "snez")
		if !ok {
			return nil
		}
		return []lowered{{Op: vm.OpSLTU, Rd: rd, Rs1: 0, Rs2: rs, Format: fmtR}}

	case "li":
		if len(ops) != 2 {
			errs.add(line, "li expects 2 operands")
			return nil
		}
		rd, err := parseReg(ops[0])
		if err != nil {
			errs.add(line, "li: bad register operand")
			return nil
		}
		imm, err := parseExprOperand(ops[1])
		if err != nil {
			errs.add(line, "li: %v", err)
			return nil
		}
		if exprIsConst(imm) {
			v := foldConst(imm)
			if v >= -2048 && v <= 2047 {
				return []lowered{{Op: vm.OpADDI, Rd: rd, Rs1: 0, Imm: constExpr(v), Format: fmtI}}
			}
			hi, lo := splitHiLo(int32(v))
			return []lowered{
				{Op: vm.OpLUI, Rd: rd, Imm: constExpr(int64(hi)), Format: fmtU},
				{Op: vm.OpADDI, Rd: rd, Rs1: rd, Imm: constExpr(int64(lo)), Format: fmtI},
			}
		}
		// Symbolic: reserve the worst case (lui+addi) since the true value
		// may not be known until the symbol is defined later in the pass.
		return []lowered{
			{Op: vm.OpLUI, Rd: rd, Imm: &Expr{Kind: exprModifier, Modifier: "hi", Left: imm}, Format: fmtU},
			{Op: vm.OpADDI, Rd: rd, Rs1: rd, Imm: &Expr{Kind: exprModifier, Modifier: "lo", Left: imm}, Format: fmtI},
		}

	case "la":
		if len(ops) != 2 {
			errs.add(line, "la expects 2 operands")
			return nil
		}
		rd, err := parseReg(ops[0])
		if err != nil {
			errs.add(line, "la: bad register operand")
			return nil
		}
		sym, err := parseExprOperand(ops[1])
		if err != nil {
			errs.add(line, "la: %v", err)
			return nil
		}
		return []lowered{
			{Op: vm.OpAUIPC, Rd: rd, Imm: &Expr{Kind: exprModifier, Modifier: "pcrel_hi", Left: sym}, Format: fmtU},
			{Op: vm.OpADDI, Rd: rd, Rs1: rd, Imm: &Expr{Kind: exprModifier, Modifier: "pcrel_lo", Left: &Expr{Kind: exprDot}}, Format: fmtI},
		}

	case "j":
		if len(ops) != 1 {
			errs.add(line, "j expects 1 operand")
			return nil
		}
		target, err := parseExprOperand(ops[0])
		if err != nil {
			errs.add(line, "j: %v", err)
			return nil
		}
		return []lowered{{Op: vm.OpJAL, Rd: 0, Imm: target, Format: fmtJ, IsTarget: true}}

	case "call":
		if len(ops) != 1 {
			errs.add(line, "call expects 1 operand")
			return nil
		}
		sym, err := parseExprOperand(ops[0])
		if err != nil {
			errs.add(line, "call: %v", err)
			return nil
		}
		return []lowered{
			{Op: vm.OpAUIPC, Rd: 1, Imm: &Expr{Kind: exprModifier, Modifier: "pcrel_hi", Left: sym}, Format: fmtU},
			{Op: vm.OpJALR, Rd: 1, Rs1: 1, Imm: &Expr{Kind: exprModifier, Modifier: "pcrel_lo", Left: &Expr{Kind: exprDot}}, Format: fmtJALR},
		}

	case "jr":
		if len(ops) != 1 {
			errs.add(line, "jr expects 1 operand")
			return nil
		}
		rs, err := parseReg(ops[0])
		if err != nil {
			errs.add(line, "jr: bad register operand")
			return nil
		}
		return []lowered{{Op: vm.OpJALR, Rd: 0, Rs1: rs, Imm: constExpr(0), Format: fmtJALR}}

	case "ret":
		if len(ops) != 0 {
			errs.add(line, "ret takes no operands")
			return nil
		}
		return []lowered{{Op: vm.OpJALR, Rd: 0, Rs1: 1, Imm: constExpr(0), Format: fmtJALR}}

	case "beqz", "bnez", "bltz", "bgez", "blez", "bgtz":
		return lowerBranchZero(st.Name, ops, line, errs)

	default:
		errs.add(line, "unknown mnemonic %q", st.RawName)
		return nil
	}
}

func twoRegs(ops [][]Token, line int, errs *ErrorList, name string) (uint32, uint32, bool) {
	if len(ops) != 2 {
		errs.add(line, "%s expects 2 operands", name)
		return 0, 0, false
	}
	rd, err1 := parseReg(ops[0])
	rs, err2 := parseReg(ops[1])
	if err1 != nil || err2 != nil {
		errs.add(line, "%s: bad register operand", name)
		return 0, 0, false
	}
	return rd, rs, true
}

func lowerBranchZero(name string, ops [][]Token, line int, errs *ErrorList) []lowered {
	if len(ops) != 2 {
		errs.add(line, "%s expects 2 operands", name)
		return nil
	}
	rs, err := parseReg(ops[0])
	if err != nil {
		errs.add(line, "%s: bad register operand", name)
		return nil
	}
	target, err := parseExprOperand(ops[1])
	if err != nil {
		errs.add(line, "%s: %v", name, err)
		return nil
	}
	var op vm.Op
	var rs1, rs2 uint32 = rs, 0
	switch name {
	case "beqz":
		op = vm.OpBEQ
	case "bnez":
		op = vm.OpBNE
	case "bltz":
		op = vm.OpBLT
	case "bgez":
		op = vm.OpBGE
	case "blez":
		op, rs1, rs2 = vm.OpBGE, 0, rs
	case "bgtz":
		op, rs1, rs2 = vm.OpBLT, 0, rs
	default:
		errs.add(line, "unreachable branch pseudo %q", name)
		return nil
	}
	return []lowered{{Op: op, Rs1: rs1, Rs2: rs2, Imm: target, Format: fmtB, IsTarget: true}}
}

// lowerReal validates and parses a genuine (non-pseudo) instruction's
// operands according to its fixed format.
func lowerReal(info instInfo, ops [][]Token, line int, errs *ErrorList) []lowered {
	l := lowered{Op: info.Op, Format: info.Format}
	var err error
	switch info.Format {
	case fmtR:
		if len(ops) != 3 {
			err = fmt.Errorf("expects 3 register operands")
			break
		}
		l.Rd, err = parseReg(ops[0])
		if err == nil {
			l.Rs1, err = parseReg(ops[1])
		}
		if err == nil {
			l.Rs2, err = parseReg(ops[2])
		}

	case fmtI, fmtISH:
		if len(ops) != 3 {
			err = fmt.Errorf("expects rd, rs1, imm")
			break
		}
		l.Rd, err = parseReg(ops[0])
		if err == nil {
			l.Rs1, err = parseReg(ops[1])
		}
		if err == nil {
			l.Imm, err = parseExprOperand(ops[2])
		}

	case fmtU:
		if len(ops) != 2 {
			err = fmt.Errorf("expects rd, imm")
			break
		}
		l.Rd, err = parseReg(ops[0])
		if err == nil {
			l.Imm, err = parseExprOperand(ops[1])
		}

	case fmtB:
		if len(ops) != 3 {
			err = fmt.Errorf("expects rs1, rs2, target")
			break
		}
		l.Rs1, err = parseReg(ops[0])
		if err == nil {
			l.Rs2, err = parseReg(ops[1])
		}
		if err == nil {
			l.Imm, err = parseExprOperand(ops[2])
			l.IsTarget = true
		}

	case fmtJ:
		if len(ops) != 2 {
			err = fmt.Errorf("expects rd, target")
			break
		}
		l.Rd, err = parseReg(ops[0])
		if err == nil {
			l.Imm, err = parseExprOperand(ops[1])
			l.IsTarget = true
		}

	case fmtLOAD:
		if len(ops) != 2 {
			err = fmt.Errorf("expects rd, imm(rs1)")
			break
		}
		l.Rd, err = parseReg(ops[0])
		if err == nil {
			l.Imm, l.Rs1, err = parseMemOperand(ops[1])
		}

	case fmtSTORE:
		if len(ops) != 2 {
			err = fmt.Errorf("expects rs2, imm(rs1)")
			break
		}
		l.Rs2, err = parseReg(ops[0])
		if err == nil {
			l.Imm, l.Rs1, err = parseMemOperand(ops[1])
		}

	case fmtJALR:
		switch len(ops) {
		case 1:
			l.Rd = 1
			l.Imm, l.Rs1, err = parseMemOperand(ops[0])
		case 2:
			l.Rd, err = parseReg(ops[0])
			if err == nil {
				l.Imm, l.Rs1, err = parseMemOperand(ops[1])
			}
		case 3:
			l.Rd, err = parseReg(ops[0])
			if err == nil {
				l.Rs1, err = parseReg(ops[1])
			}
			if err == nil {
				l.Imm, err = parseExprOperand(ops[2])
			}
		default:
			err = fmt.Errorf("expects rd, imm(rs1) or rd, rs1, imm")
		}

	case fmtCSR:
		if len(ops) != 3 {
			err = fmt.Errorf("expects rd, csr, rs1")
			break
		}
		l.Rd, err = parseReg(ops[0])
		if err == nil {
			l.Csr, err = parseCSRName(ops[1])
		}
		if err == nil {
			l.Rs1, err = parseReg(ops[2])
		}

	case fmtCSRI:
		if len(ops) != 3 {
			err = fmt.Errorf("expects rd, csr, uimm")
			break
		}
		l.Rd, err = parseReg(ops[0])
		if err == nil {
			l.Csr, err = parseCSRName(ops[1])
		}
		if err == nil {
			var e *Expr
			e, err = parseExprOperand(ops[2])
			if err == nil {
				if !exprIsConst(e) {
					err = fmt.Errorf("uimm operand must be constant")
				} else {
					l.Uimm = uint32(foldConst(e))
				}
			}
		}

	case fmtSYS:
		if len(ops) != 0 {
			err = fmt.Errorf("takes no operands")
		}
	}
	if err != nil {
		errs.add(line, "%s: %v", info.Op, err)
		return nil
	}
	return []lowered{l}
}
