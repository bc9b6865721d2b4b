package cli

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "defaults",
			args: []string{"game.prg"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.prg"},
				Flags:      options.Flags{Assembler: options.Tass64, Platform: "c64", Entry: -1},
			},
		},
		{
			name: "all options",
			args: []string{"-a", "ACME", "-platform", "c64", "-origin", "$c000", "-entry", "2",
				"-import_lbl", "in.lbl", "-export_lbl", "out.lbl", "-export_asm", "out.asm",
				"-save", "game.rwb", "-script", "fix.lua", "-illegal", "-verify", "-headless", "-debug",
				"session.rwb"},
			want: options.Program{
				Parameters: options.Parameters{
					Input:        "session.rwb",
					ImportLabels: "in.lbl",
					ExportLabels: "out.lbl",
					ExportAsm:    "out.asm",
					Save:         "game.rwb",
					Script:       "fix.lua",
				},
				Flags: options.Flags{
					Assembler: options.Acme,
					Platform:  "c64",
					Origin:    "$c000",
					Entry:     2,
					Headless:  true,
					Illegal:   true,
					Verify:    true,
					Debug:     true,
				},
			},
		},
		{
			name: "batch without input",
			args: []string{"-batch", "*.prg", "-export_asm", "x", "-q"},
			want: options.Program{
				Parameters: options.Parameters{Batch: "*.prg", ExportAsm: "x"},
				Flags:      options.Flags{Assembler: options.Tass64, Platform: "c64", Entry: -1, Quiet: true},
			},
		},
		{
			name: "version",
			args: []string{"-version"},
			want: options.Program{
				Flags: options.Flags{Assembler: options.Tass64, Platform: "c64", Entry: -1, Version: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs("retroworkbench", tt.args, io.Discard)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		usage bool
		help  bool
	}{
		{"no input", []string{}, true, false},
		{"help", []string{"-help"}, true, true},
		{"unknown flag", []string{"-nohexcomments", "game.prg"}, true, false},
		{"flag after file", []string{"game.prg", "-q"}, true, false},
		{"two files", []string{"a.prg", "b.prg"}, true, false},
		{"unsupported assembler", []string{"-a", "nesasm", "game.prg"}, false, false},
		{"unsupported platform", []string{"-platform", "nes", "game.prg"}, false, false},
		{"invalid origin", []string{"-origin", "$12345", "game.bin"}, false, false},
		{"batch to console", []string{"-batch", "*.prg", "-export_asm", "-"}, false, false},
		{"verify without export", []string{"-verify", "game.prg"}, false, false},
		{"headless raw input", []string{"-headless", "game.prg"}, false, false},
		{"headless disk image", []string{"-headless", "disk.d64"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs("retroworkbench", tt.args, io.Discard)
			assert.Error(t, err)

			var usageErr *UsageError
			assert.Equal(t, tt.usage, errors.As(err, &usageErr))
			if tt.usage {
				assert.Equal(t, tt.help, usageErr.Help)
			}
		})
	}
}

func TestParseFlagsOSArgs(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"retroworkbench", "-a", "ca65", "game.prg"}

	opts, err := ParseFlags()
	assert.NoError(t, err)
	assert.Equal(t, options.Ca65, opts.Assembler)
	assert.Equal(t, "game.prg", opts.Input)
}
