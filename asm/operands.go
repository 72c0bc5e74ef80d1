package asm

import (
	"fmt"
	"strings"

	"rv32emu/vm"
)

// parseReg resolves a single-token register operand by ABI or xN name.
func parseReg(toks []Token) (uint32, error) {
	if len(toks) != 1 || toks[0].Type != TokenIdentifier {
		return 0, fmt.Errorf("expected register name")
	}
	r, ok := vm.RegByName(toks[0].Literal)
	if !ok {
		return 0, fmt.Errorf("unknown register %q", toks[0].Literal)
	}
	return r, nil
}

// parseExprOperand parses an arbitrary token group as a constant expression.
func parseExprOperand(toks []Token) (*Expr, error) {
	if len(toks) == 0 {
		return nil, fmt.Errorf("expected expression")
	}
	p := newExprParser(toks)
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("unexpected trailing tokens in expression")
	}
	return e, nil
}

// parseMemOperand splits "imm(reg)" into its expression and base register,
// the syntax fmtLOAD/fmtSTORE/fmtJALR's indirect form use.
func parseMemOperand(toks []Token) (*Expr, uint32, error) {
	lp := -1
	rp := -1
	for i, t := range toks {
		if t.Type == TokenLParen && lp == -1 {
			lp = i
		}
		if t.Type == TokenRParen {
			rp = i
		}
	}
	if lp == -1 || rp == -1 || rp != len(toks)-1 || rp < lp {
		return nil, 0, fmt.Errorf("expected imm(reg) operand")
	}
	var immExpr *Expr
	var err error
	if lp == 0 {
		immExpr = &Expr{Kind: exprConst, Value: 0}
	} else {
		immExpr, err = parseExprOperand(toks[:lp])
		if err != nil {
			return nil, 0, err
		}
	}
	reg, err := parseReg(toks[lp+1 : rp])
	if err != nil {
		return nil, 0, err
	}
	return immExpr, reg, nil
}

// parseCSRName resolves a CSR operand, either numeric or a known name.
func parseCSRName(toks []Token) (uint32, error) {
	if len(toks) == 1 && toks[0].Type == TokenIdentifier {
		if addr, ok := namedCSRs[strings.ToLower(toks[0].Literal)]; ok {
			return addr, nil
		}
	}
	e, err := parseExprOperand(toks)
	if err != nil {
		return 0, err
	}
	if e.Kind != exprConst {
		return 0, fmt.Errorf("csr operand must be a constant or known CSR name")
	}
	return uint32(e.Value), nil
}
