package disasm

import (
	"github.com/retroenv/retroworkbench/internal/assembler"
)

func statementLine(address uint16, data []byte, s assembler.Statement) Line {
	return Line{
		Kind:      DataLine,
		Address:   address,
		Bytes:     data,
		Mnemonic:  s.Directive,
		Operand:   s.Operand,
		ShowBytes: true,
	}
}

// byteLine returns a byte directive line for the offset range [start, end).
func (r *run) byteLine(start, end int, comment string) Line {
	data := r.prg.Data()[start:end]
	line := statementLine(r.prg.AddressOf(start), data, r.formatter.FormatByteLine(data))
	line.Comment = comment
	return line
}

func (r *run) processBytes(start, end int, comment string) {
	for offset := start; offset <= end; {
		next := r.chunkEnd(offset, end, 1, r.options.BytesPerLine)
		r.addLine(r.byteLine(offset, next, comment))
		offset = next
	}
}

// processWords emits little endian words, as addresses with label substitution
// if requested. An odd trailing byte becomes a byte line.
func (r *run) processWords(start, end int, addresses bool) {
	data := r.prg.Data()
	offset := start
	for offset+1 <= end {
		next := r.chunkEnd(offset, end, 2, r.options.AddressesPerLine)

		var s assembler.Statement
		if addresses {
			var exprs []string
			for i := offset; i < next; i += 2 {
				exprs = append(exprs, r.addressExpression(uint16(data[i])|uint16(data[i+1])<<8))
			}
			s = r.formatter.FormatAddressLine(exprs)
		} else {
			var words []uint16
			for i := offset; i < next; i += 2 {
				words = append(words, uint16(data[i])|uint16(data[i+1])<<8)
			}
			s = r.formatter.FormatWordLine(words)
		}

		r.addLine(statementLine(r.prg.AddressOf(offset), data[offset:next], s))
		offset = next
	}
	if offset == end {
		r.addLine(r.byteLine(offset, offset+1, ""))
	}
}

// addressExpression returns the label of the address or a hex literal.
func (r *run) addressExpression(address uint16) string {
	if name := r.labelName(address); name != "" {
		return name
	}
	return assembler.Hex16(address)
}

// processText emits text directives. Encoding scope lines of screencode text
// enclose the whole run.
func (r *run) processText(start, end int, screencode bool) {
	data := r.prg.Data()
	for offset := start; offset <= end; {
		next := r.chunkEnd(offset, end, 1, r.options.TextCharLimit)
		address := r.prg.AddressOf(offset)
		chunk := data[offset:next]

		if !screencode {
			r.addLine(statementLine(address, chunk, r.formatter.FormatText(chunk)))
			offset = next
			continue
		}

		statements := r.formatter.FormatScreencode(chunk)
		textSeen := false
		for _, s := range statements {
			switch {
			case !s.Scope:
				textSeen = true
				r.addLine(statementLine(address, chunk, s))
			case !textSeen && offset == start, textSeen && next > end:
				r.addLine(Line{
					Kind:     ScopeLine,
					Address:  address,
					Mnemonic: s.Directive,
				})
			}
		}
		offset = next
	}
}

// processPairs emits split tables whose first half holds the low bytes (or the
// high bytes) of the values and the second half the complementary bytes.
func (r *run) processPairs(start, end int, lowFirst, addresses bool) {
	data := r.prg.Data()
	n := (end - start + 1) / 2

	exprs := make([]string, n)
	for i := range n {
		first, second := data[start+i], data[start+n+i]
		value := uint16(first) | uint16(second)<<8
		if !lowFirst {
			value = uint16(second) | uint16(first)<<8
		}
		if addresses {
			exprs[i] = r.addressExpression(value)
		} else {
			exprs[i] = assembler.Hex16(value)
		}
	}

	half := func(halfStart int, high bool) {
		halfEnd := halfStart + n - 1
		for offset := halfStart; offset <= halfEnd; {
			next := r.chunkEnd(offset, halfEnd, 1, r.options.AddressesPerLine)
			s := r.formatter.FormatPairLine(exprs[offset-halfStart:next-halfStart], high)
			line := statementLine(r.prg.AddressOf(offset), data[offset:next], s)
			line.ShowBytes = false
			r.addLine(line)
			offset = next
		}
	}
	half(start, !lowFirst)
	half(start+n, lowFirst)

	if trailing := start + 2*n; trailing == end {
		r.addLine(r.byteLine(trailing, trailing+1, ""))
	}
}

func (r *run) processExternalFile(start, end int) {
	address := r.prg.AddressOf(start)
	s := r.formatter.FormatBinaryInclude(r.ExternalFileName(address))
	line := statementLine(address, r.prg.Data()[start:end+1], s)
	line.ShowBytes = false
	r.addLine(line)
}
