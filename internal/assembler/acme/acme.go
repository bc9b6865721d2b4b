// Package acme provides the ACME assembler dialect.
package acme

import (
	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/assembler"
)

// Dialect describes the ACME syntax.
var Dialect = assembler.Dialect{
	Name: "acme",

	ByteDirective:    "!byte",
	WordDirective:    "!word",
	AddressDirective: "!word",
	TextDirective:    "!text",
	BinaryInclude:    "!binary %s",
	OriginFormat:     "* = $%04x",

	Quote: assembler.QuoteAsByte,
	Screencode: assembler.ScreencodeStyle{
		Directive: "!scr",
	},
	NotOperator: "!",

	ForceAbsoluteSuffix: map[m6502.Mode]string{
		m6502.Absolute:  "+2",
		m6502.AbsoluteX: "+2",
		m6502.AbsoluteY: "+2",
	},

	ConstantFormat:    "%s = $%04x",
	OffsetLabelFormat: "%s = *+%d",
	CommentPrefix:     ";",

	IllegalHeader: []string{"!cpu 6510"},
}
