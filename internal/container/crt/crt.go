// Package crt parses C64 cartridge images in the CRT format.
package crt

import (
	"bytes"
	"encoding/binary"

	"github.com/retroenv/retroworkbench/internal/container"
	"github.com/retroenv/retroworkbench/internal/petscii"
)

const (
	format = "crt"

	magic            = "C64 CARTRIDGE   "
	minHeaderLength  = 0x40
	chipTag          = "CHIP"
	chipHeaderLength = 0x10
)

// Chip is a ROM chip packet of the cartridge.
type Chip struct {
	Type        uint16 // 0 ROM, 1 RAM, 2 flash ROM
	Bank        uint16
	LoadAddress uint16
	Data        []byte
}

// Cartridge is a parsed CRT file.
type Cartridge struct {
	Name         string
	Version      uint16
	HardwareType uint16
	Exrom        byte
	Game         byte
	Chips        []Chip
}

// Parse parses a CRT file.
func Parse(data []byte) (*Cartridge, error) {
	if len(data) < minHeaderLength {
		return nil, container.Errorf(format, len(data), "file too short for the header")
	}
	if !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return nil, container.Errorf(format, 0, "invalid signature")
	}

	headerLength := int(binary.BigEndian.Uint32(data[0x10:]))
	if headerLength < minHeaderLength {
		headerLength = minHeaderLength
	}
	if headerLength > len(data) {
		return nil, container.Errorf(format, 0x10, "header length %d exceeds file size %d", headerLength, len(data))
	}

	cart := &Cartridge{
		Name:         petscii.DecodeName(bytes.TrimRight(data[0x20:0x40], "\x00")),
		Version:      binary.BigEndian.Uint16(data[0x14:]),
		HardwareType: binary.BigEndian.Uint16(data[0x16:]),
		Exrom:        data[0x18],
		Game:         data[0x19],
	}

	for offset := headerLength; offset < len(data); {
		chip, size, err := parseChip(data, offset)
		if err != nil {
			return nil, err
		}
		cart.Chips = append(cart.Chips, chip)
		offset += size
	}

	if len(cart.Chips) == 0 {
		return nil, container.Errorf(format, headerLength, "no chip packets")
	}
	return cart, nil
}

func parseChip(data []byte, offset int) (Chip, int, error) {
	remaining := len(data) - offset
	if remaining < chipHeaderLength {
		return Chip{}, 0, container.Errorf(format, offset, "packet header truncated, %d bytes left", remaining)
	}
	packet := data[offset:]
	if string(packet[:4]) != chipTag {
		return Chip{}, 0, container.Errorf(format, offset, "unexpected packet tag %q", packet[:4])
	}

	totalLength := int(binary.BigEndian.Uint32(packet[4:]))
	if totalLength < chipHeaderLength {
		return Chip{}, 0, container.Errorf(format, offset+4, "packet length %d shorter than its header", totalLength)
	}

	romSize := int(binary.BigEndian.Uint16(packet[0x0E:]))
	if chipHeaderLength+romSize > remaining {
		return Chip{}, 0, container.Errorf(format, offset+0x0E,
			"rom size %d exceeds the remaining %d bytes", romSize, remaining-chipHeaderLength)
	}

	chip := Chip{
		Type:        binary.BigEndian.Uint16(packet[0x08:]),
		Bank:        binary.BigEndian.Uint16(packet[0x0A:]),
		LoadAddress: binary.BigEndian.Uint16(packet[0x0C:]),
		Data:        packet[chipHeaderLength : chipHeaderLength+romSize],
	}

	// packets can contain padding after the ROM data
	size := max(totalLength, chipHeaderLength+romSize)
	return chip, min(size, remaining), nil
}

// Flatten overlays all chips into one memory image covering the range from the
// lowest load address to the highest chip end. If chips overlap, the first chip
// in the file wins.
func (c *Cartridge) Flatten() (container.Image, error) {
	if len(c.Chips) == 0 {
		return container.Image{}, container.ErrNoEntries
	}

	start, end := 0x10000, 0
	for _, chip := range c.Chips {
		start = min(start, int(chip.LoadAddress))
		end = max(end, int(chip.LoadAddress)+len(chip.Data))
	}
	if end > 0x10000 {
		return container.Image{}, container.Errorf(format, 0, "chip data exceeds the address space")
	}

	memory := make([]byte, end-start)
	for i := len(c.Chips) - 1; i >= 0; i-- {
		chip := c.Chips[i]
		copy(memory[int(chip.LoadAddress)-start:], chip.Data)
	}

	return container.Image{
		Name:   c.Name,
		Origin: uint16(start),
		Data:   memory,
	}, nil
}

// Entries returns a directory like listing of the chip packets.
func (c *Cartridge) Entries() []container.Entry {
	entries := make([]container.Entry, 0, len(c.Chips))
	for i, chip := range c.Chips {
		entries = append(entries, container.Entry{
			Index: i,
			Name:  c.Name,
			Type:  "rom",
			Start: chip.LoadAddress,
			Size:  len(chip.Data),
		})
	}
	return entries
}
