// Package petscii converts between PETSCII, C64 screencodes and source text characters.
package petscii

import "strings"

// Padding is the byte used to pad file names in directories and tape headers.
const Padding = 0xA0

// IsPrintable returns whether a PETSCII byte can be emitted inside a quoted text directive.
func IsPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// ScreencodeToChar returns the source character that an assembler translates to
// the given screencode. The second return value is false for bytes without a
// character representation, which have to be emitted as hex values.
func ScreencodeToChar(b byte) (byte, bool) {
	switch {
	case b == 0x00:
		return '@', true
	case b >= 0x01 && b <= 0x1A:
		return 'a' + b - 1, true
	case b == 0x1B:
		return '[', true
	case b == 0x1D:
		return ']', true
	case b >= 0x20 && b <= 0x3F:
		return b, true
	case b >= 0x41 && b <= 0x5A:
		return b, true
	default:
		return 0, false
	}
}

// CharToScreencode is the inverse of ScreencodeToChar.
func CharToScreencode(c byte) (byte, bool) {
	switch {
	case c == '@':
		return 0x00, true
	case c >= 'a' && c <= 'z':
		return c - 'a' + 1, true
	case c == '[':
		return 0x1B, true
	case c == ']':
		return 0x1D, true
	case c >= 0x20 && c <= 0x3F:
		return c, true
	case c >= 'A' && c <= 'Z':
		return c, true
	default:
		return 0, false
	}
}

// DecodeName converts a padded PETSCII file name to a readable string.
func DecodeName(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b == Padding || b == 0x00 {
			break
		}
		switch {
		case b >= 0xC1 && b <= 0xDA:
			sb.WriteByte(b - 0x80)
		case IsPrintable(b):
			sb.WriteByte(b)
		default:
			sb.WriteByte('?')
		}
	}
	return strings.TrimRight(sb.String(), " ")
}
