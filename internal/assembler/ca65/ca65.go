// Package ca65 provides the ca65 assembler dialect.
package ca65

import (
	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/assembler"
)

// Dialect describes the ca65 syntax. Screencode text is emitted as hex bytes.
var Dialect = assembler.Dialect{
	Name: "ca65",

	ByteDirective:    ".byte",
	WordDirective:    ".word",
	AddressDirective: ".addr",
	TextDirective:    ".byte",
	BinaryInclude:    ".incbin %s",
	OriginFormat:     ".org $%04x",

	Quote:       assembler.QuoteAsByte,
	NotOperator: "~",

	ForceAbsolutePrefix: "a:",
	ForceAbsoluteSuffix: map[m6502.Mode]string{},

	LabelSuffix:        ":",
	ConstantFormat:     "%s = $%04x",
	OffsetLabelFormat:  "%s = *+%d",
	CommentPrefix:      ";",
	AccumulatorOperand: "a",

	IllegalHeader: []string{`.setcpu "6502x"`},
}
