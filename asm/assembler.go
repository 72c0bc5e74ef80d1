package asm

// Assembler holds the mutable state threaded through both passes of
// turning source text into a flat memory image.
type Assembler struct {
	symbols *SymbolTable
	pcrelLo map[uint32]int32 // auipc address -> paired %pcrel_lo low bits
	errs    *ErrorList
	image   []byte
	lineMap map[uint32]int
	origin  uint32
}

// Output is everything Assemble produces on success.
type Output struct {
	Image   []byte
	Symbols map[string]uint32
	LineMap map[uint32]int
	Dump    string
}

// Assemble runs both passes over source and, if no errors were recorded,
// returns the resulting image, symbol table, address-to-line map and a
// disassembly dump. On any error the returned *Output is nil.
func Assemble(source string, origin uint32) (*Output, *ErrorList) {
	errs := &ErrorList{}
	lines := tokenizeLines(source, errs)
	statements := parseStatements(lines, errs)

	a := &Assembler{
		symbols: NewSymbolTable(),
		pcrelLo: make(map[uint32]int32),
		errs:    errs,
		lineMap: make(map[uint32]int),
		origin:  origin,
	}

	a.pass1(statements)
	if errs.HasErrors() {
		return nil, errs
	}
	a.pass2(statements)
	if errs.HasErrors() {
		return nil, errs
	}

	out := &Output{
		Image:   a.image,
		Symbols: a.symbols.Snapshot(),
		LineMap: a.lineMap,
	}
	out.Dump = Disassemble(out.Image, origin, out.Symbols)
	return out, errs
}

// pass1 walks every statement once, binding labels and .equ symbols to
// addresses and reserving the byte width each instruction or directive
// will occupy, without emitting anything or requiring forward references
// to already be resolved (except inside .equ itself).
func (a *Assembler) pass1(statements []*statement) {
	addr := a.origin
	for _, st := range statements {
		labels := st.Labels
		if st.IsDir && st.Name == "equ" && len(st.Operands) == 1 && len(labels) > 0 {
			// "NAME: .equ expr": the last label names the constant, which
			// defineEqu binds to the expression's value rather than to addr.
			labels = labels[:len(labels)-1]
		}
		for _, name := range labels {
			if !a.symbols.Define(name, addr, st.Line) {
				prevLine, _ := a.symbols.DefinedAt(name)
				a.errs.add(st.Line, "duplicate label %q (first defined on line %d)", name, prevLine)
			}
		}
		if st.Name == "" {
			continue
		}
		if st.IsDir {
			if st.Name == "equ" {
				a.defineEqu(st)
				continue
			}
			st.byteWidth = directiveWidth(st, addr, a.errs)
			addr += uint32(st.byteWidth)
			continue
		}
		st.lowered = lowerInstruction(st, a.errs)
		addr += uint32(4 * len(st.lowered))
	}
}

// defineEqu handles both forms the assembler accepts: a preceding label
// ("NAME: .equ expr") and the two-operand form ("NAME = expr" spelled as
// ".equ name, expr").
func (a *Assembler) defineEqu(st *statement) {
	var name string
	var valueOperand []Token

	switch {
	case len(st.Labels) > 0 && len(st.Operands) == 1:
		name = st.Labels[len(st.Labels)-1]
		valueOperand = st.Operands[0]
	case len(st.Labels) == 0 && len(st.Operands) == 2:
		if len(st.Operands[0]) != 1 || st.Operands[0][0].Type != TokenIdentifier {
			a.errs.add(st.Line, ".equ: expected a symbol name as the first operand")
			return
		}
		name = st.Operands[0][0].Literal
		valueOperand = st.Operands[1]
	default:
		a.errs.add(st.Line, ".equ requires either a preceding label or a \"name, value\" operand pair")
		return
	}

	e, err := parseExprOperand(valueOperand)
	if err != nil {
		a.errs.add(st.Line, ".equ: %v", err)
		return
	}
	v, err := a.eval(e, 0)
	if err != nil {
		a.errs.add(st.Line, ".equ: %v (forward references are not supported in .equ)", err)
		return
	}
	if !a.symbols.Define(name, uint32(v), st.Line) {
		prevLine, _ := a.symbols.DefinedAt(name)
		a.errs.add(st.Line, "duplicate symbol %q (first defined on line %d)", name, prevLine)
	}
}

// pass2 re-walks the statements with the now-complete symbol table,
// evaluating every operand expression and emitting real bytes.
func (a *Assembler) pass2(statements []*statement) {
	addr := a.origin
	for _, st := range statements {
		if st.Name == "" || st.Name == "equ" {
			continue
		}
		if st.IsDir {
			a.emitDirective(st, addr)
			addr += uint32(st.byteWidth)
			continue
		}
		for _, l := range st.lowered {
			a.lineMap[addr] = st.Line
			word, err := a.encodeLowered(l, addr)
			if err != nil {
				a.errs.add(st.Line, "%v", err)
				word = 0
			}
			a.image = append(a.image, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
			addr += 4
		}
	}
}

func (a *Assembler) encodeLowered(l lowered, addr uint32) (uint32, error) {
	var imm int64
	var err error
	if l.Imm != nil {
		imm, err = a.eval(l.Imm, addr)
		if err != nil {
			return 0, err
		}
		if l.IsTarget {
			imm = int64(int32(uint32(imm)) - int32(addr))
		}
	}
	return encodeWord(l, imm)
}
