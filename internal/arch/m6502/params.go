package m6502

import "fmt"

type paramReaderFunc func(data []byte, address uint16) (operand, target uint16, hasTarget bool)

var paramReader = map[Mode]paramReaderFunc{
	Implied:     paramReaderNone,
	Accumulator: paramReaderNone,
	Immediate:   paramReaderImmediate,
	Absolute:    paramReaderAbsolute,
	AbsoluteX:   paramReaderAbsolute,
	AbsoluteY:   paramReaderAbsolute,
	ZeroPage:    paramReaderZeroPage,
	ZeroPageX:   paramReaderZeroPage,
	ZeroPageY:   paramReaderZeroPage,
	Relative:    paramReaderRelative,
	Indirect:    paramReaderAbsolute,
	IndirectX:   paramReaderZeroPage,
	IndirectY:   paramReaderZeroPage,
}

// readOpParam reads the opcode parameters after the first opcode byte.
// The data slice starts at the opcode byte and has at least the length of the mode.
func readOpParam(mode Mode, data []byte, address uint16) (uint16, uint16, bool, error) {
	fun, ok := paramReader[mode]
	if !ok {
		return 0, 0, false, fmt.Errorf("unsupported addressing mode %d", mode)
	}
	operand, target, hasTarget := fun(data, address)
	return operand, target, hasTarget, nil
}

func paramReaderNone([]byte, uint16) (uint16, uint16, bool) {
	return 0, 0, false
}

func paramReaderImmediate(data []byte, _ uint16) (uint16, uint16, bool) {
	return uint16(data[1]), 0, false
}

func paramReaderZeroPage(data []byte, _ uint16) (uint16, uint16, bool) {
	b := uint16(data[1])
	return b, b, true
}

func paramReaderAbsolute(data []byte, _ uint16) (uint16, uint16, bool) {
	w := uint16(data[2])<<8 | uint16(data[1])
	return w, w, true
}

func paramReaderRelative(data []byte, address uint16) (uint16, uint16, bool) {
	offset := uint16(data[1])
	target := address + 2
	if offset < 0x80 {
		target += offset
	} else {
		target += offset - 0x100
	}
	return offset, target, true
}
