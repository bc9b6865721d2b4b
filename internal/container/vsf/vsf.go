// Package vsf parses VICE snapshot files and extracts the C64 memory.
package vsf

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/retroenv/retroworkbench/internal/container"
)

const (
	format = "vsf"

	magic          = "VICE Snapshot File\x1a"
	versionMagic   = "VICE Version\x1a"
	machineNameLen = 16
	moduleNameLen  = 16
	moduleHeader   = moduleNameLen + 2 + 4

	memorySize     = 0x10000
	memPortBytes   = 4
	cpuPCOffset    = 8
	romlAddress    = 0x8000
	romhAddress    = 0xA000
	cartBankLength = 0x2000
)

// Module is a snapshot module.
type Module struct {
	Name   string
	Major  byte
	Minor  byte
	Offset int // offset of the payload in the file
	Data   []byte
}

// Snapshot is a parsed VICE snapshot.
type Snapshot struct {
	Major   byte
	Minor   byte
	Machine string
	Modules []Module
}

// Parse parses a VICE snapshot file and its module list.
func Parse(data []byte) (*Snapshot, error) {
	headerLen := len(magic) + 2 + machineNameLen
	if len(data) < headerLen {
		return nil, container.Errorf(format, len(data), "file too short for the header")
	}
	if !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return nil, container.Errorf(format, 0, "invalid signature")
	}

	s := &Snapshot{
		Major:   data[len(magic)],
		Minor:   data[len(magic)+1],
		Machine: strings.TrimRight(string(data[len(magic)+2:headerLen]), "\x00 "),
	}

	offset := headerLen
	if bytes.HasPrefix(data[offset:], []byte(versionMagic)) {
		// version block: magic, 4 version bytes and a 4 byte revision
		offset += len(versionMagic) + 8
	}

	for offset < len(data) {
		if len(data)-offset < moduleHeader {
			return nil, container.Errorf(format, offset, "module header truncated")
		}
		h := data[offset:]
		size := int(binary.LittleEndian.Uint32(h[moduleNameLen+2:]))
		if size < moduleHeader {
			return nil, container.Errorf(format, offset+moduleNameLen+2, "module size %d shorter than its header", size)
		}
		if offset+size > len(data) {
			return nil, container.Errorf(format, offset+moduleNameLen+2, "module size %d exceeds the file", size)
		}

		s.Modules = append(s.Modules, Module{
			Name:   strings.TrimRight(string(h[:moduleNameLen]), "\x00 "),
			Major:  h[moduleNameLen],
			Minor:  h[moduleNameLen+1],
			Offset: offset + moduleHeader,
			Data:   h[moduleHeader:size],
		})
		offset += size
	}
	return s, nil
}

// Module returns the module with the given name.
func (s *Snapshot) Module(name string) (Module, bool) {
	for _, m := range s.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

// Image returns the 64 KiB memory with an overlaid generic cartridge and the
// program counter of the CPU as entry hint.
func (s *Snapshot) Image() (container.Image, error) {
	mem, ok := s.Module("C64MEM")
	if !ok {
		return container.Image{}, container.Errorf(format, 0, "snapshot has no C64MEM module")
	}
	if len(mem.Data) < memPortBytes+memorySize {
		return container.Image{}, container.Errorf(format, mem.Offset, "C64MEM module too short: %d bytes", len(mem.Data))
	}

	memory := make([]byte, memorySize)
	copy(memory, mem.Data[memPortBytes:memPortBytes+memorySize])

	if cart, ok := s.Module("CARTGENERIC"); ok && len(cart.Data) > 1 {
		roms := cart.Data[1:]
		copy(memory[romlAddress:], roms[:min(len(roms), cartBankLength)])
		if len(roms) > cartBankLength {
			copy(memory[romhAddress:], roms[cartBankLength:min(len(roms), 2*cartBankLength)])
		}
	}

	img := container.Image{
		Name: s.Machine,
		Data: memory,
	}
	if cpu, ok := s.Module("MAINCPU"); ok && len(cpu.Data) >= cpuPCOffset+2 {
		img.EntryHint = binary.LittleEndian.Uint16(cpu.Data[cpuPCOffset:])
		img.HasEntryHint = true
	}
	return img, nil
}
