package assembler

import (
	"fmt"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/program"
)

// NeedsForceAbsolute returns whether an absolute mode instruction with the
// given operand would be assembled to a different zero page opcode.
func NeedsForceAbsolute(o *m6502.Opcode, operand uint16, illegal bool) bool {
	if operand > 0xFF {
		return false
	}
	zpMode, ok := m6502.ZeroPageVariant(o.Mode)
	if !ok {
		return false
	}
	_, ok = m6502.Find(o.Mnemonic, zpMode, illegal)
	return ok
}

// FormatInstruction returns the mnemonic and operand of an instruction.
func (f *Formatter) FormatInstruction(ctx FormatContext) (string, string) {
	o := ctx.Opcode
	mnemonic := o.Mnemonic
	if ctx.ForceAbsolute {
		mnemonic += f.dialect.ForceAbsoluteSuffix[o.Mode]
	}

	if o.Category == m6502.Break {
		if ctx.BrkPadding {
			return f.dialect.ByteDirective, Hex8(o.Value) + ", " + Hex8(byte(ctx.Operand))
		}
		return mnemonic, ""
	}

	address := ctx.Label
	switch {
	case address != "":
	case m6502.IsZeroPageMode(o.Mode):
		address = Hex8(byte(ctx.Target))
	default:
		address = Hex16(ctx.Target)
	}
	if ctx.ForceAbsolute {
		address = f.dialect.ForceAbsolutePrefix + address
	}

	switch o.Mode {
	case m6502.Implied:
		return mnemonic, ""
	case m6502.Accumulator:
		return mnemonic, f.dialect.AccumulatorOperand
	case m6502.Immediate:
		return mnemonic, "#" + f.formatImmediate(byte(ctx.Operand), ctx.Immediate, ctx.ImmediateLabel)
	case m6502.ZeroPage, m6502.Absolute, m6502.Relative:
		return mnemonic, address
	case m6502.ZeroPageX, m6502.AbsoluteX:
		return mnemonic, address + ",x"
	case m6502.ZeroPageY, m6502.AbsoluteY:
		return mnemonic, address + ",y"
	case m6502.Indirect:
		return mnemonic, "(" + address + ")"
	case m6502.IndirectX:
		return mnemonic, "(" + address + ",x)"
	case m6502.IndirectY:
		return mnemonic, "(" + address + "),y"
	default:
		return mnemonic, ""
	}
}

// formatImmediate renders an 8 bit immediate value in the chosen format.
func (f *Formatter) formatImmediate(value byte, format program.ImmediateFormat, label string) string {
	target := label
	if target == "" {
		target = Hex16(format.Target)
	}

	switch format.Kind {
	case program.ImmediateInvertedHex:
		return f.dialect.NotOperator + Hex8(^value)
	case program.ImmediateDecimal:
		return fmt.Sprintf("%d", value)
	case program.ImmediateNegativeDecimal:
		return fmt.Sprintf("%d", int8(value))
	case program.ImmediateBinary:
		return fmt.Sprintf("%%%08b", value)
	case program.ImmediateInvertedBinary:
		return fmt.Sprintf("%s%%%08b", f.dialect.NotOperator, ^value)
	case program.ImmediateLowByte:
		return "<" + target
	case program.ImmediateHighByte:
		return ">" + target
	default:
		return Hex8(value)
	}
}
