package assembler

import (
	"strings"

	"github.com/retroenv/retroworkbench/internal/petscii"
)

// textOperand builds an operand of quoted segments for convertible characters
// and hex literals for all other bytes, joined by commas.
func textOperand(data []byte, convert func(byte) (byte, bool), quoteStyle QuoteStyle) string {
	var parts []string
	var segment strings.Builder
	inSegment := false

	flush := func() {
		if inSegment {
			parts = append(parts, `"`+segment.String()+`"`)
			segment.Reset()
			inSegment = false
		}
	}

	for _, b := range data {
		c, ok := convert(b)
		if ok && c == '"' && quoteStyle == QuoteAsByte {
			ok = false
		}
		if !ok {
			flush()
			parts = append(parts, Hex8(b))
			continue
		}

		inSegment = true
		segment.WriteByte(c)
		if c == '"' {
			segment.WriteByte('"')
		}
	}
	flush()
	return strings.Join(parts, ", ")
}

// textChar returns the source character of a text byte. The backslash is
// emitted as hex as some assemblers treat it as escape character.
func textChar(b byte) (byte, bool) {
	if !petscii.IsPrintable(b) || b == '\\' {
		return 0, false
	}
	return b, true
}

func screencodeChar(b byte) (byte, bool) {
	c, ok := petscii.ScreencodeToChar(b)
	if !ok || c == '\\' {
		return 0, false
	}
	return c, true
}

// FormatText returns a text directive for the data.
func (f *Formatter) FormatText(data []byte) Statement {
	return Statement{
		Directive: f.dialect.TextDirective,
		Operand:   textOperand(data, textChar, f.dialect.Quote),
	}
}

// FormatScreencode returns the statements for screencode data, including the
// encoding scope lines that the dialect requires.
func (f *Formatter) FormatScreencode(data []byte) []Statement {
	style := f.dialect.Screencode
	if style.Directive == "" {
		return []Statement{f.FormatByteLine(data)}
	}

	statements := make([]Statement, 0, len(style.Open)+len(style.Close)+1)
	for _, line := range style.Open {
		statements = append(statements, Statement{Directive: line, Scope: true})
	}
	statements = append(statements, Statement{
		Directive: style.Directive,
		Operand:   textOperand(data, screencodeChar, f.dialect.Quote),
	})
	for _, line := range style.Close {
		statements = append(statements, Statement{Directive: line, Scope: true})
	}
	return statements
}
