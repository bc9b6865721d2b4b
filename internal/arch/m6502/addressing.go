package m6502

import "github.com/retroenv/retrogolib/arch/cpu/cpu6502"

// Mode is the addressing mode of an opcode.
type Mode = cpu6502.AddressingMode

// addressing modes.
const (
	Implied     = cpu6502.ImpliedAddressing
	Accumulator = cpu6502.AccumulatorAddressing
	Immediate   = cpu6502.ImmediateAddressing
	ZeroPage    = cpu6502.ZeroPageAddressing
	ZeroPageX   = cpu6502.ZeroPageXAddressing
	ZeroPageY   = cpu6502.ZeroPageYAddressing
	Absolute    = cpu6502.AbsoluteAddressing
	AbsoluteX   = cpu6502.AbsoluteXAddressing
	AbsoluteY   = cpu6502.AbsoluteYAddressing
	Indirect    = cpu6502.IndirectAddressing
	IndirectX   = cpu6502.IndirectXAddressing
	IndirectY   = cpu6502.IndirectYAddressing
	Relative    = cpu6502.RelativeAddressing
)

// ModeLength returns the instruction length in bytes for an addressing mode.
func ModeLength(mode Mode) int {
	switch mode {
	case Implied, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	default:
		return 2
	}
}

// ModeName returns a short readable name of the addressing mode.
func ModeName(mode Mode) string {
	switch mode {
	case Implied:
		return "implied"
	case Accumulator:
		return "accumulator"
	case Immediate:
		return "immediate"
	case ZeroPage:
		return "zeropage"
	case ZeroPageX:
		return "zeropage,x"
	case ZeroPageY:
		return "zeropage,y"
	case Absolute:
		return "absolute"
	case AbsoluteX:
		return "absolute,x"
	case AbsoluteY:
		return "absolute,y"
	case Indirect:
		return "indirect"
	case IndirectX:
		return "(indirect,x)"
	case IndirectY:
		return "(indirect),y"
	case Relative:
		return "relative"
	default:
		return "unknown"
	}
}

// IsZeroPageMode returns whether the operand of the mode is a single zero page byte.
func IsZeroPageMode(mode Mode) bool {
	switch mode {
	case ZeroPage, ZeroPageX, ZeroPageY, IndirectX, IndirectY:
		return true
	default:
		return false
	}
}

// IsAbsoluteMode returns whether the mode has a 16 bit address operand that an
// assembler could optimize to a zero page form.
func IsAbsoluteMode(mode Mode) bool {
	switch mode {
	case Absolute, AbsoluteX, AbsoluteY:
		return true
	default:
		return false
	}
}

// ZeroPageVariant returns the zero page mode matching an absolute mode.
func ZeroPageVariant(mode Mode) (Mode, bool) {
	switch mode {
	case Absolute:
		return ZeroPage, true
	case AbsoluteX:
		return ZeroPageX, true
	case AbsoluteY:
		return ZeroPageY, true
	default:
		return mode, false
	}
}
