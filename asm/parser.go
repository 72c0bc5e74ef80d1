package asm

import (
	"strings"

	"rv32emu/vm"
)

// statement is one source line's worth of labels plus at most one
// directive or instruction.
type statement struct {
	Line      int
	Labels    []string
	IsDir     bool
	Name      string // directive name (without '.') or mnemonic, lowercase
	RawName   string // original casing, for error messages
	Operands  [][]Token
	lowered   []lowered // filled in during pass 1 for instruction statements
	byteWidth int       // filled in during pass 1 for directive statements
}

// lowered is one fully-real (non-pseudo) instruction produced either
// directly or by expanding a pseudo-instruction.
type lowered struct {
	Op        vm.Op
	Rd        uint32
	Rs1       uint32
	Rs2       uint32
	Imm       *Expr  // operand expression; nil if unused by this format
	Csr       uint32 // resolved CSR address
	Uimm      uint32
	Format    instFormat
	IsTarget  bool // Imm names an absolute branch/jump target, not a literal
}

// tokenizeLines runs the lexer over src and groups the resulting tokens
// into one slice per source line (newlines and EOF are consumed as
// separators, not emitted).
func tokenizeLines(src string, errs *ErrorList) [][]Token {
	lex := NewLexer(src, errs)
	var lines [][]Token
	var cur []Token
	for {
		tok := lex.NextToken()
		if tok.Type == TokenEOF {
			lines = append(lines, cur)
			break
		}
		if tok.Type == TokenNewline {
			lines = append(lines, cur)
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	return lines
}

func splitOperands(toks []Token) [][]Token {
	if len(toks) == 0 {
		return nil
	}
	var groups [][]Token
	var cur []Token
	for _, t := range toks {
		if t.Type == TokenComma {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	groups = append(groups, cur)
	return groups
}

// parseStatements turns tokenized lines into statements, peeling off
// leading "label:" prefixes and classifying the remainder as a directive
// or an instruction.
func parseStatements(lines [][]Token, errs *ErrorList) []*statement {
	var out []*statement
	for i, toks := range lines {
		lineNo := i + 1
		var labels []string
		for len(toks) >= 2 && toks[0].Type == TokenIdentifier && toks[1].Type == TokenColon {
			labels = append(labels, toks[0].Literal)
			toks = toks[2:]
		}
		if len(toks) == 0 {
			if len(labels) > 0 {
				out = append(out, &statement{Line: lineNo, Labels: labels})
			}
			continue
		}
		head := toks[0]
		if head.Type != TokenIdentifier {
			errs.add(lineNo, "expected directive or instruction, got %s", head.Type)
			continue
		}
		rest := toks[1:]
		st := &statement{Line: lineNo, Labels: labels, RawName: head.Literal}
		if strings.HasPrefix(head.Literal, ".") {
			st.IsDir = true
			st.Name = strings.ToLower(head.Literal[1:])
		} else {
			st.Name = strings.ToLower(head.Literal)
		}
		st.Operands = splitOperands(rest)
		out = append(out, st)
	}
	return out
}
