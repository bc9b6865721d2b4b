package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// testPrg is a PRG file loaded at $c000.
var testPrg = []byte{
	0x00, 0xC0, // load address
	0xA9, 0x00, // lda #$00
	0x8D, 0x20, 0xD0, // sta $d020
	0x60,       // rts
	0x41, 0x42, // data
}

func createTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func defaultOptions(input string) options.Program {
	return options.Program{
		Parameters: options.Parameters{Input: input},
		Flags:      options.Flags{Assembler: options.Tass64, Platform: "c64", Entry: -1},
	}
}

func TestNew(t *testing.T) {
	p := New(log.NewTestLogger(t))
	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.NotNil(t, p.detector)
	assert.NotNil(t, p.loader)
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	opts := defaultOptions(createTempFile(t, dir, "game.prg", testPrg))
	opts.ExportAsm = filepath.Join(dir, "game.asm")
	opts.ExportLabels = filepath.Join(dir, "game.lbl")
	opts.Save = filepath.Join(dir, "game.rwb")

	s, err := New(log.NewTestLogger(t)).Execute(context.Background(), opts)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xC000), s.Program().Origin())
	assert.Equal(t, program.Code, s.Program().BlockTypeAt(0))
	assert.Equal(t, program.Undefined, s.Program().BlockTypeAt(6))

	source, err := os.ReadFile(opts.ExportAsm)
	assert.NoError(t, err)
	assert.Contains(t, string(source), "* = $c000")
	assert.Contains(t, string(source), "sta EXTCOL")

	labels, err := os.ReadFile(opts.ExportLabels)
	assert.NoError(t, err)
	assert.Contains(t, string(labels), "add_label $d020 .EXTCOL")

	// reopen the saved project
	reopenOpts := defaultOptions(opts.Save)
	reopenOpts.Headless = true
	reopened, err := New(log.NewTestLogger(t)).Open(reopenOpts)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xC000), reopened.Program().Origin())
	assert.Equal(t, program.Code, reopened.Program().BlockTypeAt(0))
}

func TestExecuteImportLabelsAndScript(t *testing.T) {
	dir := t.TempDir()
	opts := defaultOptions(createTempFile(t, dir, "game.prg", testPrg))
	opts.ImportLabels = createTempFile(t, dir, "in.lbl", []byte("al C:c000 .start\n"))
	opts.Script = createTempFile(t, dir, "fix.lua", []byte(`
wb.side_comment(0xc000, "entry")
wb.set_type(0xc006, 0xc007, "petscii")
`))
	opts.ExportAsm = "-"
	opts.Verify = true

	var out bytes.Buffer
	p := New(log.NewTestLogger(t))
	p.stdout = &out

	s, err := p.Execute(context.Background(), opts)
	assert.NoError(t, err)
	assert.Equal(t, program.PetsciiText, s.Program().BlockTypeAt(6))

	source := out.String()
	assert.Contains(t, source, "start")
	assert.Contains(t, source, "; entry")
	assert.Contains(t, source, `.text "AB"`)
}

func TestExecuteExternalFiles(t *testing.T) {
	dir := t.TempDir()
	opts := defaultOptions(createTempFile(t, dir, "game.prg", testPrg))
	opts.Script = createTempFile(t, dir, "ext.lua", []byte(`wb.set_type(0xc006, 0xc007, "external_file")`))
	opts.ExportAsm = filepath.Join(dir, "out.asm")

	_, err := New(log.NewTestLogger(t)).Execute(context.Background(), opts)
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out_c006.bin"))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x41, 0x42}, data)

	source, err := os.ReadFile(opts.ExportAsm)
	assert.NoError(t, err)
	assert.Contains(t, string(source), `.binary "out_c006.bin"`)
}

func TestExecuteErrors(t *testing.T) {
	dir := t.TempDir()
	input := createTempFile(t, dir, "game.prg", testPrg)

	tests := []struct {
		name   string
		modify func(opts *options.Program)
		err    string
	}{
		{"missing input", func(opts *options.Program) { opts.Input = filepath.Join(dir, "missing.prg") }, "loading file"},
		{"missing label file", func(opts *options.Program) { opts.ImportLabels = filepath.Join(dir, "missing.lbl") }, "opening label file"},
		{"failing script", func(opts *options.Program) {
			opts.Script = createTempFile(t, dir, "fail.lua", []byte(`error("broken")`))
		}, "broken"},
		{"headless raw input", func(opts *options.Program) { opts.Headless = true }, "headless mode only accepts project files"},
		{"broken project", func(opts *options.Program) {
			opts.Input = createTempFile(t, dir, "broken.rwb", []byte("{"))
		}, "loading project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions(input)
			tt.modify(&opts)
			_, err := New(log.NewTestLogger(t)).Execute(context.Background(), opts)
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestExternalBaseName(t *testing.T) {
	tests := []struct {
		input     string
		exportAsm string
		want      string
	}{
		{"dir/game.prg", "", "game"},
		{"dir/game.prg", "-", "game"},
		{"dir/game.prg", "out/listing.asm", "listing"},
		{"image", "", "image"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			opts := options.Program{Parameters: options.Parameters{Input: tt.input, ExportAsm: tt.exportAsm}}
			assert.Equal(t, tt.want, externalBaseName(opts))
		})
	}
}
