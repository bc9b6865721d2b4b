// Package t64 parses T64 tape archive containers.
package t64

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/retroenv/retroworkbench/internal/container"
	"github.com/retroenv/retroworkbench/internal/petscii"
)

const (
	format = "t64"

	headerSize = 64
	entrySize  = 32
)

// Entry is a directory entry of the archive.
type Entry struct {
	EntryType byte // 0 free, 1 normal file
	FileType  byte
	Start     uint16
	End       uint16
	Offset    int
	Name      string
}

// Archive is a parsed T64 file.
type Archive struct {
	Name       string
	Version    uint16
	MaxEntries int
	UsedCount  int
	Entries    []Entry

	data []byte
}

// Parse parses a T64 file.
func Parse(data []byte) (*Archive, error) {
	if len(data) < headerSize {
		return nil, container.Errorf(format, len(data), "file too short for the header")
	}
	if !strings.HasPrefix(string(data[:3]), "C64") {
		return nil, container.Errorf(format, 0, "invalid signature")
	}

	a := &Archive{
		Version:    binary.LittleEndian.Uint16(data[32:]),
		MaxEntries: int(binary.LittleEndian.Uint16(data[34:])),
		UsedCount:  int(binary.LittleEndian.Uint16(data[36:])),
		Name:       strings.TrimRight(petscii.DecodeName(data[40:64]), " "),
		data:       data,
	}

	// some tools write 0 as the directory size
	slots := max(a.MaxEntries, a.UsedCount)
	if available := (len(data) - headerSize) / entrySize; slots > available {
		slots = available
	}

	for i := range slots {
		offset := headerSize + i*entrySize
		e := data[offset : offset+entrySize]
		if e[0] == 0 {
			continue
		}
		a.Entries = append(a.Entries, Entry{
			EntryType: e[0],
			FileType:  e[1],
			Start:     binary.LittleEndian.Uint16(e[2:]),
			End:       binary.LittleEndian.Uint16(e[4:]),
			Offset:    int(binary.LittleEndian.Uint32(e[8:])),
			Name:      petscii.DecodeName(e[16:32]),
		})
	}

	if len(a.Entries) == 0 {
		return nil, container.Errorf(format, headerSize, "no used directory entries")
	}
	return a, nil
}

// Extract returns the memory image of the entry with the given index.
// The data size is clamped to the file size as many archives store a wrong
// end address.
func (a *Archive) Extract(index int) (container.Image, error) {
	if index < 0 || index >= len(a.Entries) {
		return container.Image{}, fmt.Errorf("%w: %d of %d", container.ErrEntryNotFound, index, len(a.Entries))
	}
	e := a.Entries[index]

	if e.Offset >= len(a.data) {
		return container.Image{}, container.Errorf(format, headerSize+index*entrySize+8,
			"entry '%s' data offset $%x is beyond the file size $%x", e.Name, e.Offset, len(a.data))
	}

	size := int(e.End) - int(e.Start)
	if size <= 0 {
		size = len(a.data) - e.Offset
	}
	size = min(size, len(a.data)-e.Offset)

	return container.Image{
		Name:   e.Name,
		Origin: e.Start,
		Data:   a.data[e.Offset : e.Offset+size],
	}, nil
}

// List returns the directory of the archive.
func (a *Archive) List() []container.Entry {
	entries := make([]container.Entry, 0, len(a.Entries))
	for i, e := range a.Entries {
		size := int(e.End) - int(e.Start)
		entries = append(entries, container.Entry{
			Index: i,
			Name:  e.Name,
			Type:  "prg",
			Start: e.Start,
			Size:  max(size, 0),
		})
	}
	return entries
}
