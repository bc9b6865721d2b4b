package disasm

import (
	"github.com/retroenv/retroworkbench/internal/analyzer"
	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// processCode decodes all instructions of a code run. Bytes that can not be
// decoded inside the run are emitted as single byte lines.
func (r *run) processCode(start, end int) {
	data := r.prg.Data()
	for offset := start; offset <= end; {
		address := r.prg.AddressOf(offset)
		ins, note, err := analyzer.DecodeInRun(data[offset:end+1], address, r.options.Analyzer)
		if err != nil {
			r.logger.Debug("Code byte is not decodable",
				log.Hex("address", address),
				log.Err(err))
			r.addLine(r.byteLine(offset, offset+1, ""))
			offset++
			continue
		}

		if note == "" {
			note = r.result.BrkNotes[address]
		}
		r.addLine(r.instructionLine(ins, note))
		offset += ins.Length()
	}
}

func (r *run) instructionLine(ins m6502.Instruction, note string) Line {
	o := ins.Opcode
	ctx := assembler.FormatContext{
		Opcode:     o,
		Operand:    ins.Operand,
		Target:     ins.Target,
		BrkPadding: o.Category == m6502.Break && ins.Length() == 2,
	}
	if ins.HasTarget {
		ctx.Label = r.labelName(ins.Target)
		ctx.ForceAbsolute = assembler.NeedsForceAbsolute(o, ins.Operand, r.options.Analyzer.IllegalOpcodes)
	}
	if o.Mode == m6502.Immediate {
		if format, ok := r.prg.ImmediateFormat(ins.Address); ok {
			ctx.Immediate = format
			if format.HasTarget() {
				ctx.ImmediateLabel = r.labelName(format.Target)
			}
		}
	}

	mnemonic, operand := r.formatter.FormatInstruction(ctx)
	line := Line{
		Kind:          InstructionLine,
		Address:       ins.Address,
		Bytes:         ins.Bytes,
		Mnemonic:      mnemonic,
		Operand:       operand,
		Comment:       note,
		Opcode:        o,
		TargetAddress: ins.Target,
		HasTarget:     ins.HasTarget,
		SuppressArrow: o.Category == m6502.Jump && o.Mode == m6502.Indirect,
		ShowBytes:     true,
	}

	if ins.HasTarget && line.Comment == "" {
		line.Comment = r.targetComment(ins.Address, ins.Target)
	}
	return line
}

// targetComment returns the side comment of a non code operand target, unless
// the instruction has its own side comment.
func (r *run) targetComment(address, target uint16) string {
	if _, ok := r.prg.SideComment(address); ok {
		return ""
	}
	if r.prg.Contains(target) && r.prg.BlockType(target) == program.Code {
		return ""
	}
	comment, _ := r.prg.SideComment(target)
	return comment
}
