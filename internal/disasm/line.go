package disasm

import (
	"sort"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
)

// LineKind defines what a disassembly line represents.
type LineKind uint8

// line kinds.
const (
	InstructionLine LineKind = iota
	DataLine
	ScopeLine     // encoding scope directive that does not emit bytes
	CollapsedLine // placeholder for a collapsed range
)

// OffsetLabel is a label that points into the middle of a line.
type OffsetLabel struct {
	Name   string
	Offset int
}

// Line is a single line of the disassembly listing.
type Line struct {
	Kind    LineKind
	Address uint16
	Bytes   []byte

	Label    string
	Mnemonic string
	Operand  string

	Comment     string // generated comment
	SideComment string
	LineComment string

	Opcode        *m6502.Opcode
	TargetAddress uint16
	HasTarget     bool
	SuppressArrow bool

	OffsetLabels []OffsetLabel
	IsCollapsed  bool
	ShowBytes    bool
}

// Listing is the result of a disassembly run.
type Listing struct {
	Lines []Line
}

// SubLineCount returns the number of cursor positions of a line: one per
// offset label, one for the line comment and one for the line itself.
func (l *Listing) SubLineCount(index int) int {
	if index < 0 || index >= len(l.Lines) {
		return 0
	}
	line := &l.Lines[index]
	count := len(line.OffsetLabels) + 1
	if line.LineComment != "" {
		count++
	}
	return count
}

// LineIndexContainingAddress returns the index of the line whose bytes contain
// the address.
func (l *Listing) LineIndexContainingAddress(address uint16) (int, bool) {
	i := sort.Search(len(l.Lines), func(i int) bool {
		return l.Lines[i].Address > address
	})

	for j := i - 1; j >= 0; j-- {
		line := &l.Lines[j]
		if len(line.Bytes) == 0 {
			continue
		}
		if int(address) < int(line.Address)+len(line.Bytes) {
			return j, true
		}
		return 0, false
	}
	return 0, false
}

// LineIndexForSubCursor converts a cursor position counted in sub lines to the
// index of the line and the sub line position inside of it.
func (l *Listing) LineIndexForSubCursor(cursor int) (int, int, bool) {
	if cursor < 0 {
		return 0, 0, false
	}
	for i := range l.Lines {
		count := l.SubLineCount(i)
		if cursor < count {
			return i, cursor, true
		}
		cursor -= count
	}
	return 0, 0, false
}

// SubCursorForLine returns the sub line cursor position of the first sub line
// of the line.
func (l *Listing) SubCursorForLine(index int) int {
	cursor := 0
	for i := 0; i < index && i < len(l.Lines); i++ {
		cursor += l.SubLineCount(i)
	}
	return cursor
}
