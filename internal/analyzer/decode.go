package analyzer

import (
	"errors"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
)

// BrkPaddingNote is the comment of a two byte brk instruction whose padding
// byte is not part of the code block.
const BrkPaddingNote = "brk padding byte is not code"

// DecodeInRun decodes the instruction at the start of a code run. The run data
// must end at the end of the code run so that no instruction spans into the
// following block. With PatchBrk enabled a two byte brk at the end of a run is
// decoded as a single byte and returned with a note.
func DecodeInRun(run []byte, address uint16, opts Options) (m6502.Instruction, string, error) {
	decodeOpts := opts.DecodeOptions()
	ins, err := m6502.Decode(run, address, decodeOpts)
	if err == nil {
		return ins, "", nil
	}

	if opts.PatchBrk && !opts.BrkSingleByte && errors.Is(err, m6502.ErrTruncated) &&
		len(run) > 0 && run[0] == 0x00 {

		decodeOpts.BrkSingleByte = true
		ins, err = m6502.Decode(run, address, decodeOpts)
		if err != nil {
			return m6502.Instruction{}, "", err
		}
		return ins, BrkPaddingNote, nil
	}
	return m6502.Instruction{}, "", err
}
