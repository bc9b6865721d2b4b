package m6502

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOpcode is returned for bytes that do not decode to an enabled opcode.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrTruncated is returned when the instruction extends past the available data.
	ErrTruncated = errors.New("instruction truncated")
)

// DecodeOptions controls instruction decoding.
type DecodeOptions struct {
	Illegal       bool // decode undocumented opcodes
	BrkSingleByte bool // brk consumes one byte instead of two
}

// Instruction is a decoded instruction.
type Instruction struct {
	Address uint16
	Opcode  *Opcode
	Bytes   []byte

	Operand   uint16 // raw operand value, the offset byte for relative branches
	Target    uint16 // referenced address, only valid if HasTarget is set
	HasTarget bool
}

// Length returns the number of bytes of the instruction.
func (i Instruction) Length() int {
	return len(i.Bytes)
}

// Decode decodes the instruction at the start of data, which is located at address.
func Decode(data []byte, address uint16, opts DecodeOptions) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, ErrTruncated
	}

	o := Lookup(data[0], opts.Illegal)
	if o == nil {
		return Instruction{}, fmt.Errorf("%w $%02x at $%04x", ErrUnknownOpcode, data[0], address)
	}

	length := InstructionLength(o, opts)
	if len(data) < length {
		return Instruction{}, fmt.Errorf("%w: %s at $%04x needs %d bytes", ErrTruncated, o.Mnemonic, address, length)
	}

	ins := Instruction{
		Address: address,
		Opcode:  o,
		Bytes:   data[:length:length],
	}
	if o.Category == Break {
		if length == 2 {
			ins.Operand = uint16(data[1])
		}
		return ins, nil
	}

	operand, target, hasTarget, err := readOpParam(o.Mode, data, address)
	if err != nil {
		return Instruction{}, err
	}
	ins.Operand = operand
	ins.Target = target
	ins.HasTarget = hasTarget
	return ins, nil
}

// InstructionLength returns the length of the opcode honoring the brk setting.
func InstructionLength(o *Opcode, opts DecodeOptions) int {
	if o.Category == Break && !opts.BrkSingleByte {
		return 2
	}
	return o.Length
}
