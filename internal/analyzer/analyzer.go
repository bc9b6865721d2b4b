// Package analyzer implements the static analysis of a program: code
// reachability from entry points, auto label synthesis and cross references.
// The analyzer never fails, undecodable code degrades to data.
package analyzer

import (
	"slices"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/platform"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// Options configures the analysis.
type Options struct {
	IllegalOpcodes bool
	BrkSingleByte  bool
	PatchBrk       bool

	Platform *platform.Platform // optional
}

// DecodeOptions returns the instruction decoder options.
func (o Options) DecodeOptions() m6502.DecodeOptions {
	return m6502.DecodeOptions{
		Illegal:       o.IllegalOpcodes,
		BrkSingleByte: o.BrkSingleByte,
	}
}

// Region is an inclusive range of image offsets.
type Region struct {
	Start int
	End   int
}

// Analyzer analyzes programs.
type Analyzer struct {
	logger *log.Logger
	opts   Options
}

// New returns a new analyzer.
func New(logger *log.Logger, opts Options) *Analyzer {
	return &Analyzer{
		logger: logger,
		opts:   opts,
	}
}

// Options returns the analyzer options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// EntryPoints returns all code entry points of the program inside the image:
// the platform vectors, the entry hint of the container, predefined labels and
// the origin. The origin is skipped if the program starts with a BASIC stub
// that calls into the image.
func (a *Analyzer) EntryPoints(prg *program.Program) []uint16 {
	var entries []uint16
	add := func(address uint16) {
		if prg.Contains(address) && !slices.Contains(entries, address) {
			entries = append(entries, address)
		}
	}

	basicStub := false
	if p := a.opts.Platform; p != nil {
		for _, address := range p.EntryPoints(prg) {
			add(address)
		}
		if target, ok := p.BasicSysTarget(prg); ok && prg.Contains(target) {
			basicStub = true
		}
	}
	if prg.HasEntryHint {
		add(prg.EntryHint)
	}
	for _, address := range prg.LabelAddresses() {
		for _, l := range prg.Labels(address) {
			if l.Type == program.Predefined {
				add(address)
			}
		}
	}
	if !basicStub {
		add(prg.Origin())
	}
	return entries
}

// Reachable follows the execution flow from all entry points and returns the
// regions of reached bytes that are not classified as code yet. Bytes that the
// user classified as data are never walked.
func (a *Analyzer) Reachable(prg *program.Program) []Region {
	reached := a.followExecutionFlow(prg, a.EntryPoints(prg))

	var regions []Region
	start := -1
	for offset := 0; offset <= len(reached); offset++ {
		mark := offset < len(reached) && reached[offset] && prg.BlockTypeAt(offset) != program.Code
		switch {
		case mark && start < 0:
			start = offset
		case !mark && start >= 0:
			regions = append(regions, Region{Start: start, End: offset - 1})
			start = -1
		}
	}
	return regions
}

// followExecutionFlow walks the code paths from the entry points and returns a
// flag per image offset whether it is part of a reached instruction.
func (a *Analyzer) followExecutionFlow(prg *program.Program, entries []uint16) []bool {
	reached := make([]bool, prg.Len())
	visited := set.New[uint16]()
	noFallThrough := set.New[uint16]()
	queue := slices.Clone(entries)
	decodeOpts := a.opts.DecodeOptions()

	for len(queue) > 0 {
		address := queue[0]
		queue = queue[1:]
		if visited.Contains(address) {
			continue
		}
		visited.Add(address)

		ins, ok := a.decodeWalkable(prg, address, decodeOpts)
		if !ok {
			continue
		}

		offset, _ := prg.Offset(address)
		for i := range ins.Length() {
			reached[offset+i] = true
		}

		next, hasNext := nextAddress(prg, offset, ins)
		o := ins.Opcode
		switch o.Category {
		case m6502.Branch:
			queue = appendInImage(prg, queue, ins.Target)
			if noFallThrough.Contains(address) || !hasNext {
				continue
			}
			if a.complementaryBranchFollows(prg, ins, next, decodeOpts) {
				noFallThrough.Add(next)
			}
			queue = append(queue, next)
		case m6502.Jump:
			if o.Mode == m6502.Absolute {
				queue = appendInImage(prg, queue, ins.Target)
			}
		case m6502.Subroutine:
			queue = appendInImage(prg, queue, ins.Target)
			if hasNext {
				queue = append(queue, next)
			}
		default:
			if !o.EndsPath() && hasNext {
				queue = append(queue, next)
			}
		}
	}
	return reached
}

// nextAddress returns the address of the instruction following ins if it
// starts inside the image.
func nextAddress(prg *program.Program, offset int, ins m6502.Instruction) (uint16, bool) {
	if offset+ins.Length() >= prg.Len() {
		return 0, false
	}
	return ins.Address + uint16(ins.Length()), true
}

// complementaryBranchFollows returns whether the branch is followed by the
// branch on the opposite condition of the same flag, which makes the pair an
// unconditional jump.
func (a *Analyzer) complementaryBranchFollows(prg *program.Program, ins m6502.Instruction, next uint16, opts m6502.DecodeOptions) bool {
	offset, _ := prg.Offset(next)
	second, err := m6502.Decode(prg.Data()[offset:], next, opts)
	if err != nil || !m6502.IsComplementaryBranchPair(ins.Opcode, second.Opcode) {
		return false
	}
	a.logger.Debug("Detected complementary branch sequence",
		log.Hex("first_address", ins.Address),
		log.String("first_branch", ins.Opcode.Mnemonic),
		log.Hex("second_address", next),
		log.String("second_branch", second.Opcode.Mnemonic))
	return true
}

// decodeWalkable decodes the instruction at the address if all its bytes are
// inside the image and are unclassified or code.
func (a *Analyzer) decodeWalkable(prg *program.Program, address uint16, opts m6502.DecodeOptions) (m6502.Instruction, bool) {
	offset, ok := prg.Offset(address)
	if !ok {
		return m6502.Instruction{}, false
	}

	ins, err := m6502.Decode(prg.Data()[offset:], address, opts)
	if err != nil {
		a.logger.Debug("Code path ends at undecodable instruction",
			log.Hex("address", address),
			log.Err(err))
		return m6502.Instruction{}, false
	}

	for i := range ins.Length() {
		switch prg.BlockTypeAt(offset + i) {
		case program.Undefined, program.Code:
		default:
			a.logger.Debug("Code path ends at user classified data",
				log.Hex("address", address+uint16(i)))
			return m6502.Instruction{}, false
		}
	}
	return ins, true
}

func appendInImage(prg *program.Program, queue []uint16, address uint16) []uint16 {
	if !prg.Contains(address) {
		return queue
	}
	return append(queue, address)
}
