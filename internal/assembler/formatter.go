package assembler

import (
	"fmt"
	"strings"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/program"
)

// Statement is a rendered source line without label and comment.
type Statement struct {
	Directive string
	Operand   string
	Scope     bool // encoding scope line that does not emit bytes
}

// FormatContext contains all information to render an instruction.
type FormatContext struct {
	Opcode  *m6502.Opcode
	Operand uint16 // raw operand value, the offset for relative branches
	Target  uint16 // referenced address

	// Label replaces the target address in the operand if set.
	Label string
	// ForceAbsolute forces the absolute form for a zero page address.
	ForceAbsolute bool
	// BrkPadding renders a two byte brk including its padding byte.
	BrkPadding bool

	Immediate program.ImmediateFormat
	// ImmediateLabel replaces the target of a low or high byte immediate format.
	ImmediateLabel string
}

// Formatter renders source code in the syntax of a dialect.
type Formatter struct {
	dialect *Dialect
}

// New returns a formatter for the dialect.
func New(dialect *Dialect) *Formatter {
	return &Formatter{
		dialect: dialect,
	}
}

// Dialect returns the dialect of the formatter.
func (f *Formatter) Dialect() *Dialect {
	return f.dialect
}

// HeaderLines returns the dialect specific lines that follow the origin directive.
func (f *Formatter) HeaderLines(illegal bool) []string {
	lines := append([]string{}, f.dialect.Header...)
	if illegal {
		lines = append(lines, f.dialect.IllegalHeader...)
	}
	return lines
}

// FormatOrigin returns the origin directive.
func (f *Formatter) FormatOrigin(address uint16) string {
	return fmt.Sprintf(f.dialect.OriginFormat, address)
}

// FormatLabel returns a label reference.
func (f *Formatter) FormatLabel(name string) string {
	return name
}

// FormatLabelDefinition returns a label definition.
func (f *Formatter) FormatLabelDefinition(name string) string {
	return name + f.dialect.LabelSuffix
}

// FormatOffsetLabel returns the definition of a label that points into the
// middle of the following instruction or data line.
func (f *Formatter) FormatOffsetLabel(name string, offset int) string {
	return fmt.Sprintf(f.dialect.OffsetLabelFormat, name, offset)
}

// FormatConstant returns the definition of a label outside of the image.
func (f *Formatter) FormatConstant(name string, address uint16) string {
	return fmt.Sprintf(f.dialect.ConstantFormat, name, address)
}

// FormatComment returns a comment.
func (f *Formatter) FormatComment(text string) string {
	if text == "" {
		return f.dialect.CommentPrefix
	}
	return f.dialect.CommentPrefix + " " + text
}

// FormatBinaryInclude returns the directive to include an external binary file.
func (f *Formatter) FormatBinaryInclude(fileName string) Statement {
	return Statement{
		Directive: fmt.Sprintf(f.dialect.BinaryInclude, quote(fileName)),
	}
}

// FormatByteLine returns a byte directive for the data.
func (f *Formatter) FormatByteLine(data []byte) Statement {
	values := make([]string, len(data))
	for i, b := range data {
		values[i] = Hex8(b)
	}
	return Statement{
		Directive: f.dialect.ByteDirective,
		Operand:   strings.Join(values, ", "),
	}
}

// FormatWordLine returns a word directive for the values.
func (f *Formatter) FormatWordLine(words []uint16) Statement {
	values := make([]string, len(words))
	for i, w := range words {
		values[i] = Hex16(w)
	}
	return Statement{
		Directive: f.dialect.WordDirective,
		Operand:   strings.Join(values, ", "),
	}
}

// FormatAddressLine returns an address directive for already rendered
// address expressions.
func (f *Formatter) FormatAddressLine(addresses []string) Statement {
	return Statement{
		Directive: f.dialect.AddressDirective,
		Operand:   strings.Join(addresses, ", "),
	}
}

// FormatPairLine returns a byte directive holding the low or high bytes of
// address or word expressions, like <label, <$c000.
func (f *Formatter) FormatPairLine(expressions []string, high bool) Statement {
	operator := "<"
	if high {
		operator = ">"
	}
	values := make([]string, len(expressions))
	for i, e := range expressions {
		values[i] = operator + e
	}
	return Statement{
		Directive: f.dialect.ByteDirective,
		Operand:   strings.Join(values, ", "),
	}
}

// Hex8 returns a byte as hex literal.
func Hex8(b byte) string {
	return fmt.Sprintf("$%02x", b)
}

// Hex16 returns a word as hex literal.
func Hex16(w uint16) string {
	return fmt.Sprintf("$%04x", w)
}

func quote(s string) string {
	return `"` + s + `"`
}
