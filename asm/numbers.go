package asm

import "strconv"

// parseNumber parses a lexed NUMBER token's literal (decimal, 0x hex, 0b
// binary, 0o or leading-zero octal) into an unsigned 64-bit value so
// callers can range-check before truncating to the field width they need.
func parseNumber(lit string) (uint64, error) {
	switch {
	case len(lit) > 2 && (lit[1] == 'x' || lit[1] == 'X'):
		return strconv.ParseUint(lit[2:], 16, 64)
	case len(lit) > 2 && (lit[1] == 'b' || lit[1] == 'B'):
		return strconv.ParseUint(lit[2:], 2, 64)
	case len(lit) > 2 && (lit[1] == 'o' || lit[1] == 'O'):
		return strconv.ParseUint(lit[2:], 8, 64)
	case len(lit) > 1 && lit[0] == '0':
		return strconv.ParseUint(lit, 8, 64)
	default:
		return strconv.ParseUint(lit, 10, 64)
	}
}
