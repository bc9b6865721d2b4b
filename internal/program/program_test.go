package program

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func newTestProgram(t *testing.T, origin uint16, size int) *Program {
	t.Helper()
	p, err := New(origin, make([]byte, size))
	assert.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	p := newTestProgram(t, 0x0801, 16)
	assert.Equal(t, uint16(0x0801), p.Origin())
	assert.Equal(t, 16, p.Len())
	assert.Equal(t, 0x0811, p.End())
	assert.True(t, p.Contains(0x0810))
	assert.False(t, p.Contains(0x0811))
	assert.Equal(t, Undefined, p.BlockType(0x0801))

	_, err := New(0xFFFF, make([]byte, 2))
	assert.True(t, errors.Is(err, ErrImageTooLarge))

	p = newTestProgram(t, 0xFFFE, 2)
	assert.Equal(t, 0x10000, p.End())
	assert.NoError(t, p.Validate())
}

func TestSetBlockTypeRegion(t *testing.T) {
	p := newTestProgram(t, 0x1000, 8)

	assert.NoError(t, p.SetBlockTypeRegion(Code, 0, 3))
	assert.NoError(t, p.SetBlockTypeRegion(Code, 0, 3))
	assert.Equal(t, Code, p.BlockType(0x1003))
	assert.Equal(t, Undefined, p.BlockType(0x1004))

	err := p.SetBlockTypeRegion(DataByte, 4, 8)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, Undefined, p.BlockType(0x1004))

	err = p.SetBlockTypeRegion(LoHiAddress, 4, 6)
	assert.True(t, errors.Is(err, ErrOddLength))
	assert.Equal(t, Undefined, p.BlockType(0x1004))

	assert.NoError(t, p.SetBlockTypeRegion(LoHiAddress, 4, 7))
	assert.Equal(t, []BlockType{LoHiAddress, LoHiAddress, LoHiAddress, LoHiAddress}, p.BlockTypes(4, 7))
	assert.NoError(t, p.Validate())
}

func TestBlockRangeAndView(t *testing.T) {
	p := newTestProgram(t, 0x1000, 10)
	assert.NoError(t, p.SetBlockTypeRegion(Code, 0, 5))
	assert.NoError(t, p.SetBlockTypeRegion(DataByte, 6, 9))
	assert.NoError(t, p.ToggleSplitter(0x1003))

	start, end, ok := p.BlockRange(0x1004)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1003), start)
	assert.Equal(t, uint16(0x1005), end)

	_, _, ok = p.BlockRange(0x2000)
	assert.False(t, ok)

	view := p.BlocksView()
	assert.Len(t, view, 4)
	assert.Equal(t, BlockItem{Kind: BlockRun, Start: 0x1000, End: 0x1002, Type: Code}, view[0])
	assert.Equal(t, BlockItem{Kind: BlockSplitter, Start: 0x1003, End: 0x1003}, view[1])
	assert.Equal(t, BlockItem{Kind: BlockRun, Start: 0x1003, End: 0x1005, Type: Code}, view[2])
	assert.Equal(t, BlockItem{Kind: BlockRun, Start: 0x1006, End: 0x1009, Type: DataByte}, view[3])
}

func TestSplitterBounds(t *testing.T) {
	p := newTestProgram(t, 0x1000, 4)
	assert.NoError(t, p.ToggleSplitter(0x1004))
	assert.True(t, p.IsSplitter(0x1004))
	assert.NoError(t, p.ToggleSplitter(0x1004))
	assert.False(t, p.IsSplitter(0x1004))

	err := p.ToggleSplitter(0x1005)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	err = p.ToggleSplitter(0x0FFF)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestCollapseRange(t *testing.T) {
	p := newTestProgram(t, 0x1000, 32)

	assert.NoError(t, p.CollapseRange(Range{Start: 4, End: 8}))
	assert.NoError(t, p.CollapseRange(Range{Start: 0, End: 2}))
	assert.Equal(t, []Range{{0, 2}, {4, 8}}, p.CollapsedRanges())

	assert.True(t, errors.Is(p.CollapseRange(Range{Start: 8, End: 10}), ErrRangeOverlap))
	assert.True(t, errors.Is(p.CollapseRange(Range{Start: 6, End: 10}), ErrRangeOverlap))
	assert.True(t, errors.Is(p.CollapseRange(Range{Start: 10, End: 10}), ErrInvalidRange))
	assert.True(t, errors.Is(p.CollapseRange(Range{Start: 30, End: 33}), ErrInvalidRange))

	r, ok := p.CollapsedAt(5)
	assert.True(t, ok)
	assert.Equal(t, Range{Start: 4, End: 8}, r)

	assert.True(t, errors.Is(p.UncollapseRange(Range{Start: 4, End: 9}), ErrRangeNotFound))
	assert.NoError(t, p.UncollapseRange(Range{Start: 4, End: 8}))
	_, ok = p.CollapsedAt(5)
	assert.False(t, ok)
	assert.NoError(t, p.Validate())
}

func TestLabels(t *testing.T) {
	p := newTestProgram(t, 0x1000, 16)

	assert.True(t, p.AddAutoLabel(0x1004, Branch))
	assert.NoError(t, p.AddSystemLabel(0xFFD2, "CHROUT", Subroutine))
	assert.NoError(t, p.SetUserLabel(0x1004, "loop", UserDefined))

	labels := p.Labels(0x1004)
	assert.Len(t, labels, 2)
	assert.Equal(t, "loop", labels[0].Name)
	assert.Equal(t, "b1004", labels[1].Name)

	err := p.SetUserLabel(0x1008, "CHROUT", UserDefined)
	assert.True(t, errors.Is(err, ErrDuplicateLabel))
	err = p.SetUserLabel(0x1008, "loop", UserDefined)
	assert.True(t, errors.Is(err, ErrDuplicateLabel))
	assert.NoError(t, p.SetUserLabel(0x1004, "loop", UserDefined))

	// taking over the name of an auto label removes it
	assert.NoError(t, p.SetUserLabel(0x1008, "b1004", UserDefined))
	assert.Len(t, p.Labels(0x1004), 1)

	address, ok := p.LabelAddress("loop")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1004), address)

	assert.NoError(t, p.RemoveUserLabel(0x1004))
	assert.True(t, errors.Is(p.RemoveUserLabel(0x1004), ErrLabelNotFound))
	_, ok = p.LabelAddress("loop")
	assert.False(t, ok)

	assert.True(t, errors.Is(p.SetUserLabel(0x1000, "", UserDefined), ErrEmptyLabelName))
	assert.True(t, errors.Is(p.SetUserLabel(0x1000, "1abc", UserDefined), ErrInvalidLabelName))
	assert.True(t, errors.Is(p.SetUserLabel(0x1000, "LDA", UserDefined), ErrInvalidLabelName))
	assert.NoError(t, p.Validate())
}

func TestAutoLabels(t *testing.T) {
	p := newTestProgram(t, 0x1000, 16)

	assert.True(t, p.AddAutoLabel(0x1002, Branch))
	assert.True(t, p.AddAutoLabel(0x1002, Subroutine))
	assert.False(t, p.AddAutoLabel(0x1002, Jump))
	label, ok := p.PrimaryLabel(0x1002)
	assert.True(t, ok)
	assert.Equal(t, "s1002", label.Name)

	assert.NoError(t, p.SetUserLabel(0x1006, "init", UserDefined))
	assert.False(t, p.AddAutoLabel(0x1006, Subroutine))

	p.ClearAutoLabels()
	assert.Len(t, p.Labels(0x1002), 0)
	assert.Len(t, p.Labels(0x1006), 1)
}

func TestAutoLabelName(t *testing.T) {
	tests := []struct {
		typ      LabelType
		address  uint16
		expected string
	}{
		{Jump, 0xFF, "jFF"},
		{Subroutine, 0xFF, "sFF"},
		{Branch, 0xFF, "bFF"},
		{ZeroPagePointer, 0xFF, "pFF"},
		{ZeroPageField, 0xFF, "fFF"},
		{ZeroPageAbsoluteAddress, 0xFF, "aFF"},
		{Field, 0xFF, "f00FF"},
		{Pointer, 0xFF, "p00FF"},
		{AbsoluteAddress, 0xFF, "a00FF"},
		{ExternalJump, 0xFF, "e00FF"},
		{Subroutine, 0x0810, "s0810"},
		{Branch, 0x1234, "b1234"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, AutoLabelName(tt.typ, tt.address))
		})
	}
}

func TestComments(t *testing.T) {
	p := newTestProgram(t, 0x1000, 4)

	assert.NoError(t, p.SetSideComment(0x1001, "set border"))
	text, ok := p.SideComment(0x1001)
	assert.True(t, ok)
	assert.Equal(t, "set border", text)

	assert.NoError(t, p.SetSideComment(0x1001, ""))
	_, ok = p.SideComment(0x1001)
	assert.False(t, ok)

	assert.True(t, errors.Is(p.SetLineComment(0x2000, "x"), ErrOutOfBounds))
	assert.NoError(t, p.SetLineComment(0x1000, "entry"))
	assert.Equal(t, []uint16{0x1000}, p.LineCommentAddresses())
}

func TestSetOrigin(t *testing.T) {
	p := newTestProgram(t, 0x1000, 4)
	assert.NoError(t, p.SetUserLabel(0x1002, "inside", UserDefined))
	assert.NoError(t, p.SetUserLabel(0x2000, "outside", UserDefined))
	assert.NoError(t, p.AddSystemLabel(0xD020, "EXTCOL", Field))
	assert.NoError(t, p.SetSideComment(0x1001, "comment"))
	assert.NoError(t, p.ToggleSplitter(0x1004))

	saved := p.SaveAnnotations()
	assert.NoError(t, p.SetOrigin(0x0801))

	address, ok := p.LabelAddress("inside")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0803), address)
	address, _ = p.LabelAddress("outside")
	assert.Equal(t, uint16(0x2000), address)
	address, _ = p.LabelAddress("EXTCOL")
	assert.Equal(t, uint16(0xD020), address)
	_, ok = p.SideComment(0x0802)
	assert.True(t, ok)
	assert.True(t, p.IsSplitter(0x0805))
	assert.NoError(t, p.Validate())

	p.RestoreAnnotations(saved)
	assert.Equal(t, uint16(0x1000), p.Origin())
	address, _ = p.LabelAddress("inside")
	assert.Equal(t, uint16(0x1002), address)

	assert.True(t, errors.Is(p.SetOrigin(0xFFFE), ErrImageTooLarge))
}

func TestImmediateFormat(t *testing.T) {
	p := newTestProgram(t, 0x1000, 4)
	format := ImmediateFormat{Kind: ImmediateLowByte, Target: 0xC000}
	assert.NoError(t, p.SetImmediateFormat(0x1000, format))

	got, ok := p.ImmediateFormat(0x1000)
	assert.True(t, ok)
	assert.Equal(t, format, got)
	assert.True(t, got.HasTarget())

	assert.NoError(t, p.SetImmediateFormat(0x1000, ImmediateFormat{}))
	_, ok = p.ImmediateFormat(0x1000)
	assert.False(t, ok)
}

func TestParseNames(t *testing.T) {
	typ, err := ParseBlockType("lohi_address")
	assert.NoError(t, err)
	assert.Equal(t, LoHiAddress, typ)
	_, err = ParseBlockType("unknown")
	assert.True(t, errors.Is(err, ErrUnknownBlockType))

	lt, err := ParseLabelType("zp_pointer")
	assert.NoError(t, err)
	assert.Equal(t, ZeroPagePointer, lt)

	kind, err := ParseImmediateKind("negative_decimal")
	assert.NoError(t, err)
	assert.Equal(t, ImmediateNegativeDecimal, kind)
}
