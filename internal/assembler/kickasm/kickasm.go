// Package kickasm provides the KickAssembler dialect.
package kickasm

import (
	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/assembler"
)

// Dialect describes the KickAssembler syntax. Text is emitted with the ascii
// encoding so that the assembled bytes equal the source characters.
var Dialect = assembler.Dialect{
	Name: "kickasm",

	ByteDirective:    ".byte",
	WordDirective:    ".word",
	AddressDirective: ".word",
	TextDirective:    ".text",
	BinaryInclude:    ".import binary %s",
	OriginFormat:     "* = $%04x",

	Quote: assembler.QuoteAsByte,
	Screencode: assembler.ScreencodeStyle{
		Open:      []string{`.encoding "screencode_mixed"`},
		Directive: ".text",
		Close:     []string{`.encoding "ascii"`},
	},
	NotOperator: "~",

	ForceAbsoluteSuffix: map[m6502.Mode]string{
		m6502.Absolute:  ".abs",
		m6502.AbsoluteX: ".absx",
		m6502.AbsoluteY: ".absy",
	},

	LabelSuffix:       ":",
	ConstantFormat:    ".label %s = $%04x",
	OffsetLabelFormat: ".label %s = *+%d",
	CommentPrefix:     "//",

	Header:        []string{`.encoding "ascii"`},
	IllegalHeader: []string{".cpu _6502"},
}
