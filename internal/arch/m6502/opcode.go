package m6502

import "github.com/retroenv/retrogolib/arch/cpu/cpu6502"

// Category describes the control flow role of an opcode.
type Category uint8

// opcode categories.
const (
	Normal Category = iota
	Branch
	Jump
	Subroutine
	Return
	Break
	Illegal
)

// Opcode describes one entry of the 6502 opcode table.
type Opcode struct {
	Value       byte
	Mnemonic    string
	Mode        Mode
	Length      int // instruction length in bytes including the opcode byte
	Category    Category
	Instruction *cpu6502.Instruction
}

// IsIllegal returns whether the opcode is not part of the documented instruction set.
func (o *Opcode) IsIllegal() bool {
	return o.Category == Illegal
}

// EndsPath returns whether execution does not continue with the following instruction.
func (o *Opcode) EndsPath() bool {
	switch o.Category {
	case Jump, Return, Break:
		return true
	case Illegal:
		return o.Mnemonic == cpu6502.KilName
	default:
		return false
	}
}

// Opcodes contains all 256 opcodes, documented and undocumented.
var Opcodes [256]*Opcode

type opcodeKey struct {
	mnemonic string
	mode     Mode
}

// official and illegal reverse lookup, the official encoding wins if both exist.
var (
	officialByName = map[opcodeKey]*Opcode{}
	illegalByName  = map[opcodeKey]*Opcode{}
)

func init() {
	for i, ref := range cpu6502.Opcodes {
		o := &Opcode{
			Value:       byte(i),
			Mnemonic:    ref.Instruction.Name,
			Mode:        ref.Addressing,
			Length:      ModeLength(ref.Addressing),
			Category:    category(ref),
			Instruction: ref.Instruction,
		}
		Opcodes[i] = o

		key := opcodeKey{mnemonic: o.Mnemonic, mode: o.Mode}
		if o.IsIllegal() {
			if _, ok := illegalByName[key]; !ok {
				illegalByName[key] = o
			}
			continue
		}
		officialByName[key] = o
	}
}

// category derives the control flow role from the instruction sets of the
// cpu package. kil is not flagged unofficial there but halts the CPU.
func category(ref cpu6502.Opcode) Category {
	ins := ref.Instruction
	switch {
	case ins.Unofficial || ins.Name == cpu6502.KilName:
		return Illegal
	case ins.Name == cpu6502.BrkName:
		return Break
	case ins.Name == cpu6502.JsrName:
		return Subroutine
	case ins.Name == cpu6502.JmpName:
		return Jump
	case cpu6502.NotExecutingFollowingOpcodeInstructions.Contains(ins.Name):
		return Return
	case cpu6502.BranchingInstructions.Contains(ins.Name) && ref.Addressing == Relative:
		return Branch
	default:
		return Normal
	}
}

// Lookup returns the opcode for the given byte. Illegal opcodes are only returned
// if illegal is set, otherwise nil is returned for them.
func Lookup(b byte, illegal bool) *Opcode {
	o := Opcodes[b]
	if o.IsIllegal() && !illegal {
		return nil
	}
	return o
}

// Find returns the opcode for a mnemonic and addressing mode combination.
func Find(mnemonic string, mode Mode, illegal bool) (*Opcode, bool) {
	key := opcodeKey{mnemonic: mnemonic, mode: mode}
	if o, ok := officialByName[key]; ok {
		return o, true
	}
	if !illegal {
		return nil, false
	}
	o, ok := illegalByName[key]
	return o, ok
}

// IsMnemonic returns whether the name is a known instruction mnemonic.
func IsMnemonic(name string, illegal bool) bool {
	for _, o := range Opcodes {
		if o.Mnemonic == name && (illegal || !o.IsIllegal()) {
			return true
		}
	}
	return false
}

// IsAmbiguous returns whether an illegal opcode has an official twin with the same
// mnemonic and addressing mode. An assembler would always pick the official encoding,
// so the instruction can not be reproduced from source.
func (o *Opcode) IsAmbiguous() bool {
	if !o.IsIllegal() {
		return false
	}
	key := opcodeKey{mnemonic: o.Mnemonic, mode: o.Mode}
	if _, ok := officialByName[key]; ok {
		return true
	}
	first := illegalByName[key]
	return first != nil && first != o
}
