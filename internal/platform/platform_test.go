package platform

import (
	"errors"
	"testing"

	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/assert"
)

func TestGet(t *testing.T) {
	p, err := Get("C64")
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0801), p.BasicStart)

	_, err = Get("atari")
	assert.True(t, errors.Is(err, ErrUnknownPlatform))
	assert.Equal(t, []string{"c64", "pet", "plus4", "vic20"}, Names())
}

func TestSymbolsAreValidLabels(t *testing.T) {
	for _, name := range Names() {
		p, err := Get(name)
		assert.NoError(t, err)

		prg, err := program.New(0x0801, make([]byte, 16))
		assert.NoError(t, err)
		skipped := p.ApplySymbols(prg)
		assert.Len(t, skipped, 0)
		assert.NoError(t, prg.Validate())
	}
}

func TestBasicSysTarget(t *testing.T) {
	// 10 SYS2061
	stub := []byte{0x0B, 0x08, 0x0A, 0x00, 0x9E, '2', '0', '6', '1', 0x00, 0x00, 0x00, 0xEA, 0x60}
	prg, err := program.New(0x0801, stub)
	assert.NoError(t, err)

	target, ok := c64.BasicSysTarget(prg)
	assert.True(t, ok)
	assert.Equal(t, uint16(2061), target)

	entries := c64.EntryPoints(prg)
	assert.Equal(t, []uint16{2061}, entries)

	// not loaded at the BASIC start
	prg, err = program.New(0x1000, stub)
	assert.NoError(t, err)
	_, ok = c64.BasicSysTarget(prg)
	assert.False(t, ok)
}

func TestCartridgeEntryPoints(t *testing.T) {
	data := make([]byte, 0x20)
	data[0], data[1] = 0x09, 0x80 // cold start
	data[2], data[3] = 0x0C, 0x80 // warm start
	copy(data[4:], []byte{0xC3, 0xC2, 0xCD, 0x38, 0x30})

	prg, err := program.New(0x8000, data)
	assert.NoError(t, err)
	assert.Equal(t, []uint16{0x8009, 0x800C}, c64.EntryPoints(prg))
	assert.Len(t, vic20.EntryPoints(prg), 0)
}

func TestHardwareVectors(t *testing.T) {
	data := make([]byte, 0x10)
	// NMI, RESET, IRQ at $FFFA
	copy(data[0x0A:], []byte{0xF2, 0xFF, 0xF0, 0xFF, 0xF2, 0xFF})

	prg, err := program.New(0xFFF0, data)
	assert.NoError(t, err)
	assert.Equal(t, []uint16{0xFFF0, 0xFFF2}, c64.EntryPoints(prg))
}
