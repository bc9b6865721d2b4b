// Package assembler renders instructions and data directives in the syntax of
// a supported assembler. All dialect differences are described by a Dialect
// table that drives a single Formatter.
package assembler

import (
	"errors"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
)

// ErrNotInstalled is returned when an external assembler is not available.
var ErrNotInstalled = errors.New("external assembler is not installed")

// QuoteStyle defines how a double quote inside a text directive is written.
type QuoteStyle uint8

// quote styles.
const (
	QuoteDoubled QuoteStyle = iota // "a""b"
	QuoteAsByte                    // "a", $22, "b"
)

// ScreencodeStyle describes how screencode text is emitted.
type ScreencodeStyle struct {
	Open      []string // scope lines before the text
	Directive string   // text directive, empty to emit hex bytes
	Close     []string // scope lines after the text
}

// Dialect describes the syntax of an assembler.
type Dialect struct {
	Name string

	ByteDirective    string
	WordDirective    string
	AddressDirective string
	TextDirective    string
	BinaryInclude    string // format with the quoted file name
	OriginFormat     string // format with the origin address

	Quote       QuoteStyle
	Screencode  ScreencodeStyle
	NotOperator string

	// ForceAbsolutePrefix is prepended to the operand to force an absolute
	// addressing mode for an address in the zero page.
	ForceAbsolutePrefix string
	// ForceAbsoluteSuffix is appended to the mnemonic per addressing mode to
	// force an absolute addressing mode.
	ForceAbsoluteSuffix map[m6502.Mode]string

	LabelSuffix        string // label definition punctuation
	ConstantFormat     string // format with name and address
	OffsetLabelFormat  string // format with name and offset
	CommentPrefix      string
	AccumulatorOperand string

	Header        []string // lines emitted after the origin comments
	IllegalHeader []string // lines emitted when illegal opcodes are enabled
}
