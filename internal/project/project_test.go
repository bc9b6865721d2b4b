package project

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/assert"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	data := []byte{0xA9, 0x00, 0x8D, 0x20, 0xD0, 0x60, 0x00, 0x10, 0x48, 0x49, 0x01, 0x02}
	prg, err := program.New(0x0801, data)
	assert.NoError(t, err)

	assert.NoError(t, prg.SetBlockTypeRegion(program.Code, 0, 5))
	assert.NoError(t, prg.SetBlockTypeRegion(program.Address, 6, 7))
	assert.NoError(t, prg.SetBlockTypeRegion(program.PetsciiText, 8, 9))
	assert.NoError(t, prg.SetBlockTypeRegion(program.DataByte, 10, 11))
	assert.NoError(t, prg.CollapseRange(program.Range{Start: 6, End: 10}))

	assert.NoError(t, prg.SetUserLabel(0x0801, "start", program.UserDefined))
	assert.NoError(t, prg.AddSystemLabel(0xD020, "border", program.Field))
	assert.True(t, prg.AddAutoLabel(0x0807, program.Field))
	assert.NoError(t, prg.SetSideComment(0x0803, "set border"))
	assert.NoError(t, prg.SetLineComment(0x0801, "main entry"))
	assert.NoError(t, prg.SetImmediateFormat(0x0801, program.ImmediateFormat{Kind: program.ImmediateLowByte, Target: 0x0807}))
	assert.NoError(t, prg.ToggleSplitter(0x080B))
	prg.EntryHint = 0x0801
	prg.HasEntryHint = true

	return &Project{
		Program:  prg,
		Settings: options.NewSettings(),
		Cursor:   Cursor{Address: 0x0803, SubLine: 1},
	}
}

func TestSaveLoadSave(t *testing.T) {
	p := newTestProject(t)
	first, err := Marshal(p)
	assert.NoError(t, err)

	loaded, err := Unmarshal(first)
	assert.NoError(t, err)
	second, err := Marshal(loaded)
	assert.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	prg := loaded.Program
	assert.Equal(t, uint16(0x0801), prg.Origin())
	assert.Equal(t, p.Program.Data(), prg.Data())
	assert.Equal(t, program.Address, prg.BlockType(0x0807))
	assert.Equal(t, []program.Range{{Start: 6, End: 10}}, prg.CollapsedRanges())
	assert.Equal(t, []uint16{0x080B}, prg.Splitters())
	assert.Equal(t, Cursor{Address: 0x0803, SubLine: 1}, loaded.Cursor)
	assert.True(t, prg.HasEntryHint)

	label, ok := prg.PrimaryLabel(0xD020)
	assert.True(t, ok)
	assert.Equal(t, program.SystemLabel, label.Kind)
	_, ok = prg.PrimaryLabel(0x0807)
	assert.False(t, ok)

	format, ok := prg.ImmediateFormat(0x0801)
	assert.True(t, ok)
	assert.Equal(t, program.ImmediateFormat{Kind: program.ImmediateLowByte, Target: 0x0807}, format)
}

func TestSaveIsDeterministic(t *testing.T) {
	first, err := Marshal(newTestProject(t))
	assert.NoError(t, err)
	second, err := Marshal(newTestProject(t))
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestLoadErrors(t *testing.T) {
	raw, err := compress([]byte{0xEA, 0x60})
	assert.NoError(t, err)

	tests := []struct {
		name string
		data string
		err  error
	}{
		{"invalid json", `{`, ErrInvalidProject},
		{"newer version", `{"version": 99}`, ErrUnsupportedVersion},
		{"invalid raw data", `{"version": 1, "raw_data": "!!"}`, ErrInvalidProject},
		{"unknown block type", `{"version": 1, "raw_data": "` + raw + `",
			"blocks": [{"start": 0, "end": 0, "type": "sprite"}]}`, ErrInvalidProject},
		{"block out of bounds", `{"version": 1, "raw_data": "` + raw + `",
			"blocks": [{"start": 0, "end": 5, "type": "code"}]}`, ErrInvalidProject},
		{"duplicate label", `{"version": 1, "raw_data": "` + raw + `", "labels": [
			{"address": 1, "labels": [{"name": "a1", "type": "field", "kind": "user"}]},
			{"address": 2, "labels": [{"name": "a1", "type": "field", "kind": "user"}]}]}`, ErrInvalidProject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.err))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	raw, err := compress([]byte{0xEA, 0x60})
	assert.NoError(t, err)

	p, err := Unmarshal([]byte(`{"version": 1, "origin": 4096, "raw_data": "` + raw + `"}`))
	assert.NoError(t, err)
	assert.Equal(t, options.NewSettings(), p.Settings)
	assert.Equal(t, 2, p.Program.Len())
	assert.Equal(t, program.Undefined, p.Program.BlockType(0x1000))
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.rwb")
	p := newTestProject(t)
	assert.NoError(t, SaveFile(path, p))

	loaded, err := LoadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, p.Program.Data(), loaded.Program.Data())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.rwb"))
	assert.Error(t, err)
}

func TestParseLabels(t *testing.T) {
	input := `; exported labels
add_label $0801 .start
al C:d020 .border ; vic register

AL c:FFD2 chrout
`
	entries, err := ParseLabels(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, []LabelEntry{
		{Address: 0x0801, Name: "start"},
		{Address: 0xD020, Name: "border"},
		{Address: 0xFFD2, Name: "chrout"},
	}, entries)

	invalid := []string{
		"break $0801",
		"al $0801",
		"al $10000 .big",
		"al $0801 .1abc",
	}
	for _, line := range invalid {
		_, err := ParseLabels(strings.NewReader(line))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidLabelLine))
	}
}

func TestWriteLabels(t *testing.T) {
	p := newTestProject(t)
	var buf bytes.Buffer
	assert.NoError(t, WriteLabels(&buf, p.Program))
	assert.Equal(t, "add_label $0801 .start\nadd_label $0807 .f0807\nadd_label $d020 .border\n", buf.String())

	entries, err := ParseLabels(&buf)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
}
