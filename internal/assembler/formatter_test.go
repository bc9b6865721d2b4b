package assembler_test

import (
	"testing"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/assembler/acme"
	"github.com/retroenv/retroworkbench/internal/assembler/ca65"
	"github.com/retroenv/retroworkbench/internal/assembler/kickasm"
	"github.com/retroenv/retroworkbench/internal/assembler/tass64"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/assert"
)

func formatters() map[string]*assembler.Formatter {
	return map[string]*assembler.Formatter{
		"64tass":  assembler.New(&tass64.Dialect),
		"acme":    assembler.New(&acme.Dialect),
		"ca65":    assembler.New(&ca65.Dialect),
		"kickasm": assembler.New(&kickasm.Dialect),
	}
}

func TestFormatImmediateHex(t *testing.T) {
	for name, f := range formatters() {
		t.Run(name, func(t *testing.T) {
			mnemonic, operand := f.FormatInstruction(assembler.FormatContext{
				Opcode:  m6502.Lookup(0xA9, false),
				Operand: 0x00,
			})
			assert.Equal(t, "lda", mnemonic)
			assert.Equal(t, "#$00", operand)
		})
	}
}

func TestFormatForceAbsolute(t *testing.T) {
	expected := map[string][2]string{
		"64tass":  {"lda", "@w $0012"},
		"acme":    {"lda+2", "$0012"},
		"ca65":    {"lda", "a:$0012"},
		"kickasm": {"lda.abs", "$0012"},
	}

	for name, f := range formatters() {
		t.Run(name, func(t *testing.T) {
			mnemonic, operand := f.FormatInstruction(assembler.FormatContext{
				Opcode:        m6502.Lookup(0xAD, false),
				Operand:       0x0012,
				Target:        0x0012,
				ForceAbsolute: true,
			})
			assert.Equal(t, expected[name][0], mnemonic)
			assert.Equal(t, expected[name][1], operand)
		})
	}
}

func TestNeedsForceAbsolute(t *testing.T) {
	tests := []struct {
		name    string
		opcode  byte
		operand uint16
		want    bool
	}{
		{"absolute in zero page", 0xAD, 0x0012, true},
		{"absolute outside zero page", 0xAD, 0x1234, false},
		{"no zero page y variant for lda", 0xB9, 0x0012, false},
		{"zero page y variant for ldx", 0xBE, 0x0012, true},
		{"zero page mode", 0xA5, 0x0012, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assembler.NeedsForceAbsolute(m6502.Lookup(tt.opcode, false), tt.operand, false)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatImmediateFormats(t *testing.T) {
	tass := assembler.New(&tass64.Dialect)
	acmeFormatter := assembler.New(&acme.Dialect)

	tests := []struct {
		name     string
		value    uint16
		format   program.ImmediateFormat
		label    string
		expected string
	}{
		{"hex", 0x0F, program.ImmediateFormat{Kind: program.ImmediateHex}, "", "#$0f"},
		{"inverted hex", 0x0F, program.ImmediateFormat{Kind: program.ImmediateInvertedHex}, "", "#~$f0"},
		{"decimal", 0x0F, program.ImmediateFormat{Kind: program.ImmediateDecimal}, "", "#15"},
		{"negative decimal", 0xFF, program.ImmediateFormat{Kind: program.ImmediateNegativeDecimal}, "", "#-1"},
		{"binary", 0x0F, program.ImmediateFormat{Kind: program.ImmediateBinary}, "", "#%00001111"},
		{"inverted binary", 0x0F, program.ImmediateFormat{Kind: program.ImmediateInvertedBinary}, "", "#~%11110000"},
		{"low byte label", 0x00, program.ImmediateFormat{Kind: program.ImmediateLowByte, Target: 0xC000}, "screen", "#<screen"},
		{"high byte address", 0xC0, program.ImmediateFormat{Kind: program.ImmediateHighByte, Target: 0xC000}, "", "#>$c000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, operand := tass.FormatInstruction(assembler.FormatContext{
				Opcode:         m6502.Lookup(0xA9, false),
				Operand:        tt.value,
				Immediate:      tt.format,
				ImmediateLabel: tt.label,
			})
			assert.Equal(t, tt.expected, operand)
		})
	}

	_, operand := acmeFormatter.FormatInstruction(assembler.FormatContext{
		Opcode:    m6502.Lookup(0xA9, false),
		Operand:   0x0F,
		Immediate: program.ImmediateFormat{Kind: program.ImmediateInvertedHex},
	})
	assert.Equal(t, "#!$f0", operand)
}

func TestFormatAddressingModes(t *testing.T) {
	tass := assembler.New(&tass64.Dialect)
	acmeFormatter := assembler.New(&acme.Dialect)

	tests := []struct {
		name     string
		ctx      assembler.FormatContext
		expected string
	}{
		{"indirect jump", assembler.FormatContext{Opcode: m6502.Lookup(0x6C, false), Target: 0x0314}, "($0314)"},
		{"indirect y", assembler.FormatContext{Opcode: m6502.Lookup(0xB1, false), Target: 0xFB}, "($fb),y"},
		{"indirect x", assembler.FormatContext{Opcode: m6502.Lookup(0xA1, false), Target: 0xFB}, "($fb,x)"},
		{"zero page x", assembler.FormatContext{Opcode: m6502.Lookup(0x95, false), Target: 0xFB}, "$fb,x"},
		{"absolute y", assembler.FormatContext{Opcode: m6502.Lookup(0xB9, false), Target: 0x1234}, "$1234,y"},
		{"branch label", assembler.FormatContext{Opcode: m6502.Lookup(0xD0, false), Target: 0x1009, Label: "loop"}, "loop"},
		{"label with index", assembler.FormatContext{Opcode: m6502.Lookup(0xBD, false), Target: 0x2000, Label: "table"}, "table,x"},
		{"accumulator", assembler.FormatContext{Opcode: m6502.Lookup(0x0A, false)}, "a"},
		{"implied", assembler.FormatContext{Opcode: m6502.Lookup(0x60, false)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, operand := tass.FormatInstruction(tt.ctx)
			assert.Equal(t, tt.expected, operand)
		})
	}

	_, operand := acmeFormatter.FormatInstruction(assembler.FormatContext{Opcode: m6502.Lookup(0x0A, false)})
	assert.Equal(t, "", operand)
}

func TestFormatBrk(t *testing.T) {
	f := assembler.New(&tass64.Dialect)
	opts := assembler.FormatContext{Opcode: m6502.Lookup(0x00, false)}
	mnemonic, operand := f.FormatInstruction(opts)
	assert.Equal(t, "brk", mnemonic)
	assert.Equal(t, "", operand)

	opts.BrkPadding = true
	opts.Operand = 0x12
	mnemonic, operand = f.FormatInstruction(opts)
	assert.Equal(t, ".byte", mnemonic)
	assert.Equal(t, "$00, $12", operand)
}

func TestFormatText(t *testing.T) {
	data := []byte{'a', '"', 'b', 0x0D}

	s := assembler.New(&tass64.Dialect).FormatText(data)
	assert.Equal(t, ".text", s.Directive)
	assert.Equal(t, `"a""b", $0d`, s.Operand)

	s = assembler.New(&acme.Dialect).FormatText(data)
	assert.Equal(t, "!text", s.Directive)
	assert.Equal(t, `"a", $22, "b", $0d`, s.Operand)

	s = assembler.New(&ca65.Dialect).FormatText([]byte{'\\', 'x'})
	assert.Equal(t, `$5c, "x"`, s.Operand)
}

func TestFormatScreencode(t *testing.T) {
	data := []byte{0x41, 0x42, 0x43}

	statements := assembler.New(&tass64.Dialect).FormatScreencode(data)
	assert.Len(t, statements, 4)
	assert.Equal(t, ".encode", statements[0].Directive)
	assert.True(t, statements[0].Scope)
	assert.Equal(t, `.enc "screen"`, statements[1].Directive)
	assert.Equal(t, ".text", statements[2].Directive)
	assert.Equal(t, `"ABC"`, statements[2].Operand)
	assert.False(t, statements[2].Scope)
	assert.Equal(t, ".endencode", statements[3].Directive)

	statements = assembler.New(&acme.Dialect).FormatScreencode([]byte{0x01, 0x02, 0x80})
	assert.Len(t, statements, 1)
	assert.Equal(t, "!scr", statements[0].Directive)
	assert.Equal(t, `"ab", $80`, statements[0].Operand)

	statements = assembler.New(&ca65.Dialect).FormatScreencode(data)
	assert.Len(t, statements, 1)
	assert.Equal(t, ".byte", statements[0].Directive)
	assert.Equal(t, "$41, $42, $43", statements[0].Operand)

	statements = assembler.New(&kickasm.Dialect).FormatScreencode(data)
	assert.Len(t, statements, 3)
}

func TestFormatDirectives(t *testing.T) {
	f := assembler.New(&ca65.Dialect)
	assert.Equal(t, ".org $0801", f.FormatOrigin(0x0801))
	assert.Equal(t, "start:", f.FormatLabelDefinition("start"))
	assert.Equal(t, "mid = *+1", f.FormatOffsetLabel("mid", 1))
	assert.Equal(t, "chrout = $ffd2", f.FormatConstant("chrout", 0xFFD2))
	assert.Equal(t, `.incbin "game_c000.bin"`, f.FormatBinaryInclude("game_c000.bin").Directive)

	s := f.FormatAddressLine([]string{"start", "$c000"})
	assert.Equal(t, ".addr", s.Directive)
	assert.Equal(t, "start, $c000", s.Operand)

	s = f.FormatPairLine([]string{"$c000", "$d001"}, false)
	assert.Equal(t, "<$c000, <$d001", s.Operand)
	s = f.FormatPairLine([]string{"$c000", "$d001"}, true)
	assert.Equal(t, ">$c000, >$d001", s.Operand)

	s = f.FormatWordLine([]uint16{0x1234, 0x0001})
	assert.Equal(t, ".word", s.Directive)
	assert.Equal(t, "$1234, $0001", s.Operand)

	kick := assembler.New(&kickasm.Dialect)
	assert.Equal(t, "// note", kick.FormatComment("note"))
	assert.Equal(t, ".label io = $d000", kick.FormatConstant("io", 0xD000))
	assert.Equal(t, []string{`.encoding "ascii"`, ".cpu _6502"}, kick.HeaderLines(true))

	tass := assembler.New(&tass64.Dialect)
	assert.Equal(t, "start", tass.FormatLabelDefinition("start"))
	assert.Empty(t, tass.HeaderLines(false))
	assert.Equal(t, "* = $0801", tass.FormatOrigin(0x0801))
}

func TestGenerateLinkerConfig(t *testing.T) {
	cfg, err := ca65.GenerateLinkerConfig(0x0801, 3)
	assert.NoError(t, err)
	assert.Contains(t, cfg, "start = $0801")
	assert.Contains(t, cfg, "size = $0003")
	assert.Contains(t, cfg, "CODE:")

	_, err = ca65.GenerateLinkerConfig(0xFFFF, 2)
	assert.Error(t, err)
}
