package analyzer

import (
	"slices"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// Result contains the derived data of a label refresh.
type Result struct {
	Xrefs    *CrossReferences
	BrkNotes map[uint16]string // notes for brk instructions, keyed by address
}

// roles collects the best auto label type for every referenced address.
type roles map[uint16]program.LabelType

func (r roles) add(address uint16, typ program.LabelType) {
	if current, ok := r[address]; !ok || typ.Outranks(current) {
		r[address] = typ
	}
}

// Refresh regenerates all auto labels and the cross references from the
// current classification. Auto labels never replace user or system labels.
func (a *Analyzer) Refresh(prg *program.Program) *Result {
	prg.ClearAutoLabels()

	res := &Result{
		Xrefs:    NewCrossReferences(),
		BrkNotes: map[uint16]string{},
	}
	found := roles{}

	for _, item := range prg.BlocksView() {
		if item.Kind != program.BlockRun {
			continue
		}
		start, _ := prg.Offset(item.Start)
		end, _ := prg.Offset(item.End)

		switch item.Type {
		case program.Code:
			a.scanCode(prg, start, end, res, found)
		case program.Address:
			scanAddressWords(prg, start, end, res, found)
		case program.LoHiAddress, program.HiLoAddress:
			scanAddressPairs(prg, start, end, item.Type == program.LoHiAddress, res, found)
		default:
		}
	}

	for _, address := range prg.ImmediateFormatAddresses() {
		format, _ := prg.ImmediateFormat(address)
		if !format.HasTarget() {
			continue
		}
		res.Xrefs.Add(format.Target, address)
		found.add(format.Target, dataRole(prg, format.Target, false))
	}

	addresses := make([]uint16, 0, len(found))
	for address := range found {
		addresses = append(addresses, address)
	}
	slices.Sort(addresses)

	added := 0
	for _, address := range addresses {
		if prg.AddAutoLabel(address, found[address]) {
			added++
		}
	}

	a.logger.Debug("Refreshed auto labels",
		log.Int("references", len(addresses)),
		log.Int("labels", added))
	return res
}

// scanCode decodes all instructions of a code run.
func (a *Analyzer) scanCode(prg *program.Program, start, end int, res *Result, found roles) {
	data := prg.Data()
	for offset := start; offset <= end; {
		address := prg.AddressOf(offset)
		ins, note, err := DecodeInRun(data[offset:end+1], address, a.opts)
		if err != nil {
			offset++
			continue
		}
		if note != "" {
			res.BrkNotes[address] = note
		}

		if ins.HasTarget {
			res.Xrefs.Add(ins.Target, address)
			found.add(ins.Target, instructionRole(prg, ins))
		}
		offset += ins.Length()
	}
}

// instructionRole returns the label type for the operand target of an instruction.
func instructionRole(prg *program.Program, ins m6502.Instruction) program.LabelType {
	o := ins.Opcode
	inImage := prg.Contains(ins.Target)

	switch {
	case o.Mode == m6502.Indirect:
		return program.Pointer
	case o.Mode == m6502.IndirectX, o.Mode == m6502.IndirectY:
		return program.ZeroPagePointer
	case o.Category == m6502.Branch:
		return controlRole(inImage, program.Branch)
	case o.Category == m6502.Jump:
		return controlRole(inImage, program.Jump)
	case o.Category == m6502.Subroutine:
		return controlRole(inImage, program.Subroutine)
	default:
		return dataRole(prg, ins.Target, m6502.IsZeroPageMode(o.Mode))
	}
}

func controlRole(inImage bool, typ program.LabelType) program.LabelType {
	if inImage {
		return typ
	}
	return program.ExternalJump
}

// dataRole returns the label type of a data reference.
func dataRole(prg *program.Program, target uint16, zeroPage bool) program.LabelType {
	switch {
	case prg.Contains(target) && zeroPage:
		return program.ZeroPageField
	case prg.Contains(target):
		return program.Field
	case zeroPage:
		return program.ZeroPageAbsoluteAddress
	default:
		return program.AbsoluteAddress
	}
}

// tableRole returns the label type of an address stored in a data table.
func tableRole(prg *program.Program, target uint16) program.LabelType {
	if prg.Contains(target) && prg.BlockType(target) == program.Code {
		return program.Jump
	}
	return dataRole(prg, target, false)
}

// scanAddressWords handles runs of little endian addresses.
func scanAddressWords(prg *program.Program, start, end int, res *Result, found roles) {
	data := prg.Data()
	for offset := start; offset+1 <= end; offset += 2 {
		target := uint16(data[offset]) | uint16(data[offset+1])<<8
		res.Xrefs.Add(target, prg.AddressOf(offset))
		found.add(target, tableRole(prg, target))
	}
}

// scanAddressPairs handles split address tables where the first half of the run
// holds the low (or high) bytes and the second half the complementary bytes.
func scanAddressPairs(prg *program.Program, start, end int, lowFirst bool, res *Result, found roles) {
	data := prg.Data()
	n := (end - start + 1) / 2
	for i := range n {
		first, second := data[start+i], data[start+n+i]
		target := uint16(first) | uint16(second)<<8
		if !lowFirst {
			target = uint16(second) | uint16(first)<<8
		}
		res.Xrefs.Add(target, prg.AddressOf(start+i))
		found.add(target, tableRole(prg, target))
	}
}
