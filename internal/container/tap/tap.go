// Package tap parses raw C64 tape images in the TAP format and decodes the
// files stored with the standard KERNAL tape encoding.
package tap

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/retroenv/retroworkbench/internal/container"
	"github.com/retroenv/retroworkbench/internal/petscii"
)

const (
	format = "tap"

	magic      = "C64-TAPE-RAW"
	headerSize = 0x14
)

// PulseKind is the classification of a pulse of the standard tape encoding.
type PulseKind uint8

// pulse kinds.
const (
	PulseKeepAlive PulseKind = iota // outside of the data windows
	PulseShort
	PulseMedium
	PulseLong
)

// pulse windows in cycles of the standard encoding.
const (
	minShortCycles  = 0x20 * 8
	minMediumCycles = 0x37 * 8
	minLongCycles   = 0x4A * 8
	maxLongCycles   = 0x64 * 8
)

// Classify returns the kind of a pulse of the given length in cycles.
func Classify(cycles int) PulseKind {
	switch {
	case cycles < minShortCycles:
		return PulseKeepAlive
	case cycles < minMediumCycles:
		return PulseShort
	case cycles < minLongCycles:
		return PulseMedium
	case cycles < maxLongCycles:
		return PulseLong
	default:
		return PulseKeepAlive
	}
}

// Tape is a parsed TAP file.
type Tape struct {
	Version byte
	Pulses  []int // pulse lengths in cycles
}

// Parse parses a TAP file and converts the data to pulse lengths.
func Parse(data []byte) (*Tape, error) {
	if len(data) < headerSize {
		return nil, container.Errorf(format, len(data), "file too short for the header")
	}
	if !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return nil, container.Errorf(format, 0, "invalid signature")
	}

	t := &Tape{Version: data[0x0C]}
	length := int(binary.LittleEndian.Uint32(data[0x10:]))
	end := headerSize + length
	if end > len(data) {
		// truncated files are common, use what is there
		end = len(data)
	}

	for i := headerSize; i < end; i++ {
		b := data[i]
		if b != 0 {
			t.Pulses = append(t.Pulses, int(b)*8)
			continue
		}
		if t.Version == 0 {
			t.Pulses = append(t.Pulses, 256*8)
			continue
		}
		if i+3 >= end {
			return nil, container.Errorf(format, i, "extended pulse length truncated")
		}
		cycles := int(data[i+1]) | int(data[i+2])<<8 | int(data[i+3])<<16
		t.Pulses = append(t.Pulses, cycles)
		i += 3
	}
	return t, nil
}

// File is a file decoded from the tape.
type File struct {
	Name  string
	Type  byte // header type, 1 relocatable program, 3 non relocatable program
	Start uint16
	End   uint16
	Data  []byte
	Turbo bool // decoded by the turbo loader heuristic
}

// Image returns the memory image of the file.
func (f File) Image() container.Image {
	return container.Image{
		Name:   f.Name,
		Origin: f.Start,
		Data:   f.Data,
	}
}

// Files decodes all files of the tape. Tapes without any standard encoded file
// are decoded by the turbo loader heuristic.
func (t *Tape) Files() ([]File, error) {
	blocks := decodeBlocks(t.Pulses)
	files := pairBlocks(blocks)
	if len(files) > 0 {
		return files, nil
	}

	f, ok := decodeTurbo(t.Pulses)
	if !ok {
		return nil, fmt.Errorf("%w: no decodable data found", container.ErrNoEntries)
	}
	return []File{f}, nil
}

// List returns the directory of the tape.
func (t *Tape) List() ([]container.Entry, error) {
	files, err := t.Files()
	if err != nil {
		return nil, err
	}
	entries := make([]container.Entry, 0, len(files))
	for i, f := range files {
		typ := "prg"
		if f.Turbo {
			typ = "trb"
		}
		entries = append(entries, container.Entry{
			Index: i,
			Name:  f.Name,
			Type:  typ,
			Start: f.Start,
			Size:  len(f.Data),
		})
	}
	return entries, nil
}

// Extract returns the memory image of the file with the given index.
func (t *Tape) Extract(index int) (container.Image, error) {
	files, err := t.Files()
	if err != nil {
		return container.Image{}, err
	}
	if index < 0 || index >= len(files) {
		return container.Image{}, fmt.Errorf("%w: %d of %d", container.ErrEntryNotFound, index, len(files))
	}
	return files[index].Image(), nil
}

// block is a checksum verified KERNAL tape block.
type block struct {
	repeated bool // second copy, countdown $09..$01
	payload  []byte
}

const (
	headerBlockSize = 192
	countdownLength = 9
)

// decodeBlocks decodes the byte stream of the standard encoding. Each byte
// starts with a long+medium marker, followed by eight bits LSB first and an odd
// parity bit. A bit is short+medium for 0 and medium+short for 1. A block ends
// at any pulse sequence that is not a valid byte.
func decodeBlocks(pulses []int) []block {
	var blocks []block
	var current []byte

	finish := func() {
		if b, ok := verifyBlock(current); ok {
			blocks = append(blocks, b)
		}
		current = nil
	}

	for i := 0; i+1 < len(pulses); {
		if Classify(pulses[i]) != PulseLong || Classify(pulses[i+1]) != PulseMedium {
			if len(current) > 0 {
				finish()
			}
			i++
			continue
		}

		value, ok := readByte(pulses, i+2)
		if !ok {
			finish()
			i++
			continue
		}
		current = append(current, value)
		i += 2 + 9*2
	}
	finish()
	return blocks
}

func readByte(pulses []int, i int) (byte, bool) {
	if i+18 > len(pulses) {
		return 0, false
	}

	var value byte
	ones := 0
	for bit := range 9 {
		first := Classify(pulses[i+bit*2])
		second := Classify(pulses[i+bit*2+1])

		var one bool
		switch {
		case first == PulseShort && second == PulseMedium:
		case first == PulseMedium && second == PulseShort:
			one = true
		default:
			return 0, false
		}

		if one {
			ones++
			if bit < 8 {
				value |= 1 << bit
			}
		}
	}
	if ones%2 != 1 {
		return 0, false
	}
	return value, true
}

// verifyBlock checks the countdown sequence and the xor checksum.
func verifyBlock(data []byte) (block, bool) {
	if len(data) < countdownLength+2 {
		return block{}, false
	}

	var repeated bool
	switch data[0] {
	case 0x89:
	case 0x09:
		repeated = true
	default:
		return block{}, false
	}
	for i := range countdownLength {
		if data[i] != data[0]-byte(i) {
			return block{}, false
		}
	}

	payload := data[countdownLength : len(data)-1]
	var checksum byte
	for _, b := range payload {
		checksum ^= b
	}
	if checksum != data[len(data)-1] {
		return block{}, false
	}
	return block{repeated: repeated, payload: payload}, true
}

// pairBlocks combines header blocks with the following data block. The repeated
// copy of a block is only used if the first copy was not decodable.
func pairBlocks(blocks []block) []File {
	var files []File
	var header *File
	var lastFirst []byte

	for _, b := range blocks {
		if b.repeated && lastFirst != nil && len(lastFirst) == len(b.payload) {
			lastFirst = nil
			continue
		}
		if !b.repeated {
			lastFirst = b.payload
		}

		if f, ok := parseHeader(b.payload); ok {
			header = &f
			continue
		}
		if header == nil {
			continue
		}
		size := int(header.End) - int(header.Start)
		if size <= 0 || size > len(b.payload) {
			size = len(b.payload)
		}
		header.Data = b.payload[:size]
		files = append(files, *header)
		header = nil
	}
	return files
}

func parseHeader(payload []byte) (File, bool) {
	if len(payload) != headerBlockSize {
		return File{}, false
	}
	switch payload[0] {
	case 1, 3:
	default:
		return File{}, false
	}
	return File{
		Type:  payload[0],
		Start: binary.LittleEndian.Uint16(payload[1:]),
		End:   binary.LittleEndian.Uint16(payload[3:]),
		Name:  petscii.DecodeName(payload[5:21]),
	}, true
}
