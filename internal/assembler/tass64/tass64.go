// Package tass64 provides the 64tass assembler dialect.
package tass64

import (
	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/assembler"
)

// Dialect describes the 64tass syntax.
var Dialect = assembler.Dialect{
	Name: "64tass",

	ByteDirective:    ".byte",
	WordDirective:    ".word",
	AddressDirective: ".word",
	TextDirective:    ".text",
	BinaryInclude:    ".binary %s",
	OriginFormat:     "* = $%04x",

	Quote: assembler.QuoteDoubled,
	Screencode: assembler.ScreencodeStyle{
		Open:      []string{".encode", `.enc "screen"`},
		Directive: ".text",
		Close:     []string{".endencode"},
	},
	NotOperator: "~",

	ForceAbsolutePrefix: "@w ",
	ForceAbsoluteSuffix: map[m6502.Mode]string{},

	LabelSuffix:        "",
	ConstantFormat:     "%s = $%04x",
	OffsetLabelFormat:  "%s = *+%d",
	CommentPrefix:      ";",
	AccumulatorOperand: "a",

	IllegalHeader: []string{`.cpu "6502i"`},
}
