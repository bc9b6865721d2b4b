package vsf

import (
	"encoding/binary"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func module(name string, payload []byte) []byte {
	m := make([]byte, moduleHeader, moduleHeader+len(payload))
	copy(m, name)
	m[moduleNameLen] = 1
	binary.LittleEndian.PutUint32(m[moduleNameLen+2:], uint32(moduleHeader+len(payload)))
	return append(m, payload...)
}

func snapshot(modules ...[]byte) []byte {
	data := []byte(magic)
	data = append(data, 2, 0)
	machine := make([]byte, machineNameLen)
	copy(machine, "C64")
	data = append(data, machine...)
	data = append(data, versionMagic...)
	data = append(data, 3, 6, 0, 0, 0, 0, 0, 0)
	for _, m := range modules {
		data = append(data, m...)
	}
	return data
}

func TestImage(t *testing.T) {
	mem := make([]byte, memPortBytes+memorySize)
	mem[memPortBytes+0x0801] = 0xEA
	mem[memPortBytes+0x8000] = 0x11

	cpu := make([]byte, 16)
	binary.LittleEndian.PutUint16(cpu[cpuPCOffset:], 0x080D)

	cart := make([]byte, 1+2*cartBankLength)
	cart[1] = 0x42
	cart[1+cartBankLength] = 0x43

	s, err := Parse(snapshot(module("MAINCPU", cpu), module("C64MEM", mem), module("CARTGENERIC", cart)))
	assert.NoError(t, err)
	assert.Equal(t, "C64", s.Machine)
	assert.Len(t, s.Modules, 3)

	img, err := s.Image()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0), img.Origin)
	assert.Len(t, img.Data, memorySize)
	assert.Equal(t, byte(0xEA), img.Data[0x0801])
	assert.Equal(t, byte(0x42), img.Data[0x8000])
	assert.Equal(t, byte(0x43), img.Data[0xA000])
	assert.True(t, img.HasEntryHint)
	assert.Equal(t, uint16(0x080D), img.EntryHint)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("VICE"))
	assert.Error(t, err)

	data := snapshot()
	data[0] = 'X'
	_, err = Parse(data)
	assert.ErrorContains(t, err, "invalid signature")

	bad := module("C64MEM", []byte{1, 2})
	binary.LittleEndian.PutUint32(bad[moduleNameLen+2:], 1000)
	_, err = Parse(snapshot(bad))
	assert.ErrorContains(t, err, "exceeds the file")

	s, err := Parse(snapshot(module("MAINCPU", make([]byte, 16))))
	assert.NoError(t, err)
	_, err = s.Image()
	assert.ErrorContains(t, err, "no C64MEM module")
}
