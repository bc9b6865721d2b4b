// Package disasm turns the classification model of a program into a linear
// listing of disassembly lines.
package disasm

import (
	"fmt"
	"strings"

	"github.com/retroenv/retroworkbench/internal/analyzer"
	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/log"
)

const (
	unclassifiedComment = "unclassified"
	xrefCommentPrefix   = "x-ref: "
)

// Options configures the line generation.
type Options struct {
	Analyzer analyzer.Options

	BytesPerLine     int
	AddressesPerLine int
	TextCharLimit    int
	MaxXrefCount     int

	// ExternalBaseName is the base of the file names of external file blocks.
	ExternalBaseName string
	// ExpandCollapsed disassembles collapsed ranges instead of emitting a placeholder.
	ExpandCollapsed bool
}

// Disasm implements the disassembler.
type Disasm struct {
	logger    *log.Logger
	formatter *assembler.Formatter
	options   Options
}

// New returns a new disassembler that renders its lines with the formatter.
func New(logger *log.Logger, formatter *assembler.Formatter, options Options) *Disasm {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 8
	}
	if options.AddressesPerLine <= 0 {
		options.AddressesPerLine = 5
	}
	if options.TextCharLimit <= 0 {
		options.TextCharLimit = 32
	}
	if options.ExternalBaseName == "" {
		options.ExternalBaseName = "data"
	}
	return &Disasm{
		logger:    logger,
		formatter: formatter,
		options:   options,
	}
}

// ExternalFileName returns the name of the file that an external file block
// starting at the address is written to.
func (dis *Disasm) ExternalFileName(address uint16) string {
	return fmt.Sprintf("%s_%04x.bin", dis.options.ExternalBaseName, address)
}

// run holds the state of a single disassembly pass.
type run struct {
	*Disasm
	prg     *program.Program
	result  *analyzer.Result
	listing *Listing
}

// Disassemble generates the listing of the program. The analysis result
// provides cross references and brk notes and can be nil.
func (dis *Disasm) Disassemble(prg *program.Program, result *analyzer.Result) *Listing {
	if result == nil {
		result = &analyzer.Result{
			Xrefs:    analyzer.NewCrossReferences(),
			BrkNotes: map[uint16]string{},
		}
	}
	r := &run{
		Disasm:  dis,
		prg:     prg,
		result:  result,
		listing: &Listing{},
	}

	for _, item := range prg.BlocksView() {
		if item.Kind != program.BlockRun {
			continue
		}
		start, _ := prg.Offset(item.Start)
		end, _ := prg.Offset(item.End)

		if item.Collapsed && !dis.options.ExpandCollapsed {
			r.processCollapsed(start)
			continue
		}
		r.processRun(item.Type, start, end)
	}

	dis.logger.Debug("Disassembled program",
		log.Hex("origin", prg.Origin()),
		log.Int("lines", len(r.listing.Lines)))
	return r.listing
}

func (r *run) processRun(typ program.BlockType, start, end int) {
	switch typ {
	case program.Code:
		r.processCode(start, end)
	case program.DataByte:
		r.processBytes(start, end, "")
	case program.DataWord:
		r.processWords(start, end, false)
	case program.Address:
		r.processWords(start, end, true)
	case program.PetsciiText:
		r.processText(start, end, false)
	case program.ScreencodeText:
		r.processText(start, end, true)
	case program.LoHiAddress, program.HiLoAddress:
		r.processPairs(start, end, typ == program.LoHiAddress, true)
	case program.LoHiWord, program.HiLoWord:
		r.processPairs(start, end, typ == program.LoHiWord, false)
	case program.ExternalFile:
		r.processExternalFile(start, end)
	default:
		r.processBytes(start, end, unclassifiedComment)
	}
}

// processCollapsed emits one placeholder per collapsed range, the following
// runs of the range are skipped.
func (r *run) processCollapsed(start int) {
	rng, ok := r.prg.CollapsedAt(start)
	if !ok || rng.Start != start {
		return
	}
	address := r.prg.AddressOf(rng.Start)
	line := Line{
		Kind:        CollapsedLine,
		Address:     address,
		Bytes:       r.prg.Data()[rng.Start:rng.End],
		Comment:     fmt.Sprintf("collapsed $%04x-$%04x, %d bytes", address, r.prg.AddressOf(rng.End-1), rng.Len()),
		IsCollapsed: true,
	}
	r.addLine(line)
}

// addLine attaches the labels and comments of the addresses covered by the
// line and appends it to the listing.
func (r *run) addLine(line Line) {
	prg := r.prg
	address := line.Address
	var comments []string
	if line.Comment != "" {
		comments = append(comments, line.Comment)
	}

	if len(line.Bytes) > 0 {
		labels := prg.Labels(address)
		for i, l := range labels {
			if i == 0 {
				line.Label = l.Name
				continue
			}
			line.OffsetLabels = append(line.OffsetLabels, OffsetLabel{Name: l.Name})
		}
		for i := 1; i < len(line.Bytes); i++ {
			for _, l := range prg.Labels(address + uint16(i)) {
				line.OffsetLabels = append(line.OffsetLabels, OffsetLabel{Name: l.Name, Offset: i})
			}
		}

		line.LineComment, _ = prg.LineComment(address)
		line.SideComment, _ = prg.SideComment(address)

		if line.Label != "" {
			if xref := r.xrefComment(address); xref != "" {
				comments = append(comments, xref)
			}
		}
	}

	line.Comment = strings.Join(comments, "; ")
	r.listing.Lines = append(r.listing.Lines, line)
}

// xrefComment returns the cross reference comment for a labelled address.
func (r *run) xrefComment(address uint16) string {
	sources := r.result.Xrefs.Sources(address, r.options.MaxXrefCount)
	if len(sources) == 0 {
		return ""
	}
	parts := make([]string, len(sources))
	for i, source := range sources {
		parts[i] = assembler.Hex16(source)
	}
	return xrefCommentPrefix + strings.Join(parts, ", ")
}

// labelName returns the name of the primary label at the address.
func (r *run) labelName(address uint16) string {
	l, ok := r.prg.PrimaryLabel(address)
	if !ok {
		return ""
	}
	return r.formatter.FormatLabel(l.Name)
}

// breaksLine returns whether a data line has to end before the offset.
func (r *run) breaksLine(offset int) bool {
	address := r.prg.AddressOf(offset)
	if len(r.prg.Labels(address)) > 0 {
		return true
	}
	_, ok := r.prg.LineComment(address)
	return ok
}

// chunkEnd returns the exclusive end offset of a line that starts at the offset
// and holds up to maxUnits entries of unit bytes. Lines break at labels and line
// comments.
func (r *run) chunkEnd(offset, end, unit, maxUnits int) int {
	next := offset + unit
	for units := 1; units < maxUnits && next+unit-1 <= end && !r.breaksLine(next); units++ {
		next += unit
	}
	return next
}
