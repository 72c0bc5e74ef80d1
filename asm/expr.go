package asm

import "fmt"

// exprKind distinguishes the handful of expression shapes this assembler
// allows: a constant, a symbol reference, a sum/difference of the two, or
// a %hi/%lo/%pcrel_hi/%pcrel_lo modifier wrapping a sub-expression.
type exprKind int

const (
	exprConst exprKind = iota
	exprSymbol
	exprDot // "." (the address of the instruction currently being assembled)
	exprAdd
	exprSub
	exprModifier
)

// Expr is a small AST for assembler-time constant expressions.
type Expr struct {
	Kind     exprKind
	Value    int64  // exprConst
	Symbol   string // exprSymbol
	Modifier string // exprModifier: "hi" | "lo" | "pcrel_hi" | "pcrel_lo"
	Left     *Expr
	Right    *Expr
	Line     int
}

// parseExpr parses term (('+' | '-') term)* from p, where term is a
// primary expression (number, char, symbol, "." or a %modifier(...)
// wrapper).
func (p *exprParser) parseExpr() (*Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case TokenPlus:
			p.next()
			right, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			left = &Expr{Kind: exprAdd, Left: left, Right: right, Line: left.Line}
		case TokenMinus:
			p.next()
			right, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			left = &Expr{Kind: exprSub, Left: left, Right: right, Line: left.Line}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parsePrimary() (*Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenMinus:
		p.next()
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: exprSub, Left: &Expr{Kind: exprConst, Value: 0, Line: tok.Line}, Right: inner, Line: tok.Line}, nil

	case TokenNumber:
		p.next()
		v, err := parseNumber(tok.Literal)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.Literal)
		}
		return &Expr{Kind: exprConst, Value: int64(v), Line: tok.Line}, nil

	case TokenChar:
		p.next()
		return &Expr{Kind: exprConst, Value: int64(tok.Literal[0]), Line: tok.Line}, nil

	case TokenPercent:
		p.next()
		name := p.peek()
		if name.Type != TokenIdentifier {
			return nil, fmt.Errorf("expected modifier name after %%")
		}
		p.next()
		if p.peek().Type != TokenLParen {
			return nil, fmt.Errorf("expected '(' after %%%s", name.Literal)
		}
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().Type != TokenRParen {
			return nil, fmt.Errorf("expected ')' to close %%%s(...)", name.Literal)
		}
		p.next()
		return &Expr{Kind: exprModifier, Modifier: name.Literal, Left: inner, Line: tok.Line}, nil

	case TokenIdentifier:
		p.next()
		if tok.Literal == "." {
			return &Expr{Kind: exprDot, Line: tok.Line}, nil
		}
		return &Expr{Kind: exprSymbol, Symbol: tok.Literal, Line: tok.Line}, nil

	default:
		return nil, fmt.Errorf("unexpected token %s in expression", tok.Type)
	}
}

// exprParser is a minimal recursive-descent parser over a flat token slice,
// used both for directive operands and instruction operand expressions.
type exprParser struct {
	toks []Token
	pos  int
}

func newExprParser(toks []Token) *exprParser { return &exprParser{toks: toks} }

func (p *exprParser) peek() Token {
	if p.pos >= len(p.toks) {
		return Token{Type: TokenEOF}
	}
	return p.toks[p.pos]
}

func (p *exprParser) next() Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) atEnd() bool { return p.pos >= len(p.toks) }

// splitHiLo implements the %hi/%lo pairing: lo is the sign-extended low
// 12 bits, hi is bits 31:12 adjusted so that hi<<12 + sext(lo) == v.
func splitHiLo(v int32) (hi int32, lo int32) {
	lo = v << 20 >> 20 // sign-extend low 12 bits
	hi = (v - lo) >> 12
	return hi, lo
}

// eval evaluates e using a.symbols for symbol lookups and currentAddr for
// "." and %pcrel_* modifiers. A %pcrel_hi evaluation records its low-12
// part in a.pcrelLo, keyed by currentAddr, so a paired %pcrel_lo can find it.
func (a *Assembler) eval(e *Expr, currentAddr uint32) (int64, error) {
	switch e.Kind {
	case exprConst:
		return e.Value, nil
	case exprDot:
		return int64(currentAddr), nil
	case exprSymbol:
		v, ok := a.symbols.Lookup(e.Symbol)
		if !ok {
			return 0, fmt.Errorf("undefined symbol %q", e.Symbol)
		}
		return int64(v), nil
	case exprAdd:
		l, err := a.eval(e.Left, currentAddr)
		if err != nil {
			return 0, err
		}
		r, err := a.eval(e.Right, currentAddr)
		if err != nil {
			return 0, err
		}
		return l + r, nil
	case exprSub:
		l, err := a.eval(e.Left, currentAddr)
		if err != nil {
			return 0, err
		}
		r, err := a.eval(e.Right, currentAddr)
		if err != nil {
			return 0, err
		}
		return l - r, nil
	case exprModifier:
		return a.evalModifier(e, currentAddr)
	default:
		return 0, fmt.Errorf("malformed expression")
	}
}

func (a *Assembler) evalModifier(e *Expr, currentAddr uint32) (int64, error) {
	switch e.Modifier {
	case "hi":
		v, err := a.eval(e.Left, currentAddr)
		if err != nil {
			return 0, err
		}
		hi, _ := splitHiLo(int32(v))
		return int64(hi), nil

	case "lo":
		v, err := a.eval(e.Left, currentAddr)
		if err != nil {
			return 0, err
		}
		_, lo := splitHiLo(int32(v))
		return int64(lo), nil

	case "pcrel_hi":
		v, err := a.eval(e.Left, currentAddr)
		if err != nil {
			return 0, err
		}
		offset := int32(v) - int32(currentAddr)
		hi, lo := splitHiLo(offset)
		a.pcrelLo[currentAddr] = lo
		return int64(hi), nil

	case "pcrel_lo":
		var auipcAddr uint32
		if e.Left.Kind == exprDot {
			auipcAddr = currentAddr - 4
		} else {
			v, err := a.eval(e.Left, currentAddr)
			if err != nil {
				return 0, err
			}
			auipcAddr = uint32(v)
		}
		lo, ok := a.pcrelLo[auipcAddr]
		if !ok {
			return 0, fmt.Errorf("%%pcrel_lo has no matching %%pcrel_hi at 0x%08x", auipcAddr)
		}
		return int64(lo), nil

	default:
		return 0, fmt.Errorf("unknown modifier %%%s", e.Modifier)
	}
}
