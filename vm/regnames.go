package vm

// RegNames holds the RV32I calling-convention ABI names for x0-x31, used
// by the assembler (register parsing) and the disassembler/debugger
// (register display).
var RegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegByName resolves a register by its ABI name ("a0"), its raw name
// ("x10"), or the "fp" alias for s0. Case-insensitive. Returns false if
// name does not name a register.
func RegByName(name string) (uint32, bool) {
	lower := toLowerASCII(name)
	if lower == "fp" {
		return 8, true
	}
	if len(lower) >= 2 && lower[0] == 'x' {
		if n, ok := parseRegIndex(lower[1:]); ok {
			return n, true
		}
	}
	for i, n := range RegNames {
		if n == lower {
			return uint32(i), true
		}
	}
	return 0, false
}

func parseRegIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	n := uint32(0)
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint32(c-'0')
	}
	if n > 31 {
		return 0, false
	}
	return n, true
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
