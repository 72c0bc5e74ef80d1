package asm

// directiveWidth returns how many bytes st occupies in the image, computed
// during pass 1 so label addresses after it are correct. addr is the
// statement's own address, needed only by .align.
func directiveWidth(st *statement, addr uint32, errs *ErrorList) int {
	switch st.Name {
	case "byte":
		return len(st.Operands)
	case "half":
		return 2 * len(st.Operands)
	case "word":
		return 4 * len(st.Operands)
	case "ascii", "asciz", "string":
		n := 0
		for _, op := range st.Operands {
			n += stringOperandLen(op, st.Line, errs)
		}
		if st.Name != "ascii" {
			n += len(st.Operands) // one NUL terminator per string
		}
		return n
	case "zero", "space":
		if len(st.Operands) != 1 {
			errs.add(st.Line, ".%s expects exactly one operand", st.Name)
			return 0
		}
		e, err := parseExprOperand(st.Operands[0])
		if err != nil || !exprIsConst(e) {
			errs.add(st.Line, ".%s: operand must be a constant", st.Name)
			return 0
		}
		return int(foldConst(e))
	case "align":
		if len(st.Operands) != 1 {
			errs.add(st.Line, ".align expects exactly one operand")
			return 0
		}
		e, err := parseExprOperand(st.Operands[0])
		if err != nil || !exprIsConst(e) {
			errs.add(st.Line, ".align: operand must be a constant")
			return 0
		}
		alignPower := uint32(foldConst(e))
		align := uint32(1) << alignPower
		rem := addr % align
		if rem == 0 {
			return 0
		}
		return int(align - rem)
	case "equ", "globl", "global", "text", "data", "section":
		return 0
	default:
		errs.add(st.Line, "unknown directive %q", st.RawName)
		return 0
	}
}

func stringOperandLen(op []Token, line int, errs *ErrorList) int {
	if len(op) != 1 || op[0].Type != TokenString {
		errs.add(line, "expected string literal operand")
		return 0
	}
	return len(op[0].Literal)
}

// emitDirective appends st's bytes to a.image, resolving any value
// expressions against the now-complete symbol table (pass 2).
func (a *Assembler) emitDirective(st *statement, addr uint32) {
	switch st.Name {
	case "byte":
		for _, op := range st.Operands {
			v := a.evalDirectiveExpr(op, addr, st.Line)
			a.image = append(a.image, byte(v))
		}
	case "half":
		for _, op := range st.Operands {
			v := a.evalDirectiveExpr(op, addr, st.Line)
			a.image = append(a.image, byte(v), byte(v>>8))
		}
	case "word":
		for _, op := range st.Operands {
			v := a.evalDirectiveExpr(op, addr, st.Line)
			a.image = append(a.image, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
	case "ascii", "asciz", "string":
		for _, op := range st.Operands {
			if len(op) != 1 || op[0].Type != TokenString {
				continue
			}
			a.image = append(a.image, []byte(op[0].Literal)...)
			if st.Name != "ascii" {
				a.image = append(a.image, 0)
			}
		}
	case "zero", "space":
		e, err := parseExprOperand(st.Operands[0])
		if err == nil {
			n := foldConst(e)
			a.image = append(a.image, make([]byte, n)...)
		}
	case "align":
		e, err := parseExprOperand(st.Operands[0])
		if err != nil {
			return
		}
		alignPower := uint32(foldConst(e))
		align := uint32(1) << alignPower
		rem := addr % align
		if rem != 0 {
			a.image = append(a.image, make([]byte, align-rem)...)
		}
	case "equ", "globl", "global", "text", "data", "section":
		// no bytes emitted
	}
}

func (a *Assembler) evalDirectiveExpr(toks []Token, addr uint32, line int) int64 {
	e, err := parseExprOperand(toks)
	if err != nil {
		a.errs.add(line, "%v", err)
		return 0
	}
	v, err := a.eval(e, addr)
	if err != nil {
		a.errs.add(line, "%v", err)
		return 0
	}
	return v
}
