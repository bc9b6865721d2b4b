// Package d64 parses 1541 disk images in the D64 format.
package d64

import (
	"errors"
	"fmt"

	"github.com/retroenv/retroworkbench/internal/container"
	"github.com/retroenv/retroworkbench/internal/petscii"
	"github.com/retroenv/retrogolib/set"
)

const (
	format = "d64"

	sectorSize       = 256
	sectorDataSize   = 254
	directoryTrack   = 18
	directorySector  = 1
	bamSector        = 0
	dirEntrySize     = 32
	entriesPerSector = 8
)

// supported image sizes and their track counts.
var imageSizes = map[int]int{
	174848: 35, // 683 sectors
	175531: 35, // with error bytes
	196608: 40, // 768 sectors
	197376: 40, // with error bytes
}

// ErrInvalidSector is returned for track and sector numbers outside the disk geometry.
var ErrInvalidSector = errors.New("invalid track/sector")

var fileTypes = []string{"del", "seq", "prg", "usr", "rel"}

// SectorsPerTrack returns the number of sectors of a track, or 0 for invalid tracks.
func SectorsPerTrack(track int) int {
	switch {
	case track < 1:
		return 0
	case track <= 17:
		return 21
	case track <= 24:
		return 19
	case track <= 30:
		return 18
	case track <= 40:
		return 17
	default:
		return 0
	}
}

// Entry is a directory entry of the disk.
type Entry struct {
	Name        string
	FileType    byte
	Closed      bool
	FirstTrack  int
	FirstSector int
	Blocks      int
}

// Type returns the name of the file type.
func (e Entry) Type() string {
	if int(e.FileType) < len(fileTypes) {
		return fileTypes[e.FileType]
	}
	return "???"
}

// Disk is a parsed D64 image.
type Disk struct {
	Name    string
	ID      string
	Tracks  int
	Entries []Entry

	data []byte
}

// Parse parses a D64 image and reads its directory.
func Parse(data []byte) (*Disk, error) {
	tracks, ok := imageSizes[len(data)]
	if !ok {
		return nil, container.Errorf(format, len(data), "unsupported image size %d", len(data))
	}

	d := &Disk{
		Tracks: tracks,
		data:   data,
	}

	bam, err := d.sector(directoryTrack, bamSector)
	if err != nil {
		return nil, err
	}
	d.Name = petscii.DecodeName(bam[0x90:0xA0])
	d.ID = petscii.DecodeName(bam[0xA2:0xA4])

	if err := d.readDirectory(); err != nil {
		return nil, err
	}
	return d, nil
}

// sectorOffset returns the offset of a sector in the image.
func (d *Disk) sectorOffset(track, sector int) (int, error) {
	if track < 1 || track > d.Tracks || sector < 0 || sector >= SectorsPerTrack(track) {
		return 0, fmt.Errorf("%w: track %d sector %d", ErrInvalidSector, track, sector)
	}
	offset := 0
	for t := 1; t < track; t++ {
		offset += SectorsPerTrack(t)
	}
	return (offset + sector) * sectorSize, nil
}

func (d *Disk) sector(track, sector int) ([]byte, error) {
	offset, err := d.sectorOffset(track, sector)
	if err != nil {
		return nil, err
	}
	return d.data[offset : offset+sectorSize], nil
}

// chain follows a sector chain and calls fn for every sector.
func (d *Disk) chain(track, sector int, fn func(data []byte, last bool) error) error {
	visited := set.New[int]()
	for {
		offset, err := d.sectorOffset(track, sector)
		if err != nil {
			return err
		}
		if visited.Contains(offset) {
			return container.Errorf(format, offset, "sector chain loop at track %d sector %d", track, sector)
		}
		visited.Add(offset)

		data := d.data[offset : offset+sectorSize]
		nextTrack, nextSector := int(data[0]), int(data[1])
		last := nextTrack == 0
		if err := fn(data, last); err != nil {
			return err
		}
		if last {
			return nil
		}
		track, sector = nextTrack, nextSector
	}
}

func (d *Disk) readDirectory() error {
	return d.chain(directoryTrack, directorySector, func(data []byte, _ bool) error {
		for i := range entriesPerSector {
			e := data[i*dirEntrySize : (i+1)*dirEntrySize]
			typ := e[2]
			if typ == 0 {
				continue
			}
			d.Entries = append(d.Entries, Entry{
				Name:        petscii.DecodeName(e[5:21]),
				FileType:    typ & 0x07,
				Closed:      typ&0x80 != 0,
				FirstTrack:  int(e[3]),
				FirstSector: int(e[4]),
				Blocks:      int(e[30]) | int(e[31])<<8,
			})
		}
		return nil
	})
}

// ReadFile returns the raw bytes of the file with the given directory index.
func (d *Disk) ReadFile(index int) ([]byte, error) {
	if index < 0 || index >= len(d.Entries) {
		return nil, fmt.Errorf("%w: %d of %d", container.ErrEntryNotFound, index, len(d.Entries))
	}
	e := d.Entries[index]

	var file []byte
	err := d.chain(e.FirstTrack, e.FirstSector, func(data []byte, last bool) error {
		if !last {
			file = append(file, data[2:]...)
			return nil
		}
		lastUsed := int(data[1])
		if lastUsed < 1 {
			return container.Errorf(format, 1, "invalid last sector byte count %d", lastUsed)
		}
		file = append(file, data[2:lastUsed+1]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading file '%s': %w", e.Name, err)
	}
	return file, nil
}

// Extract returns the memory image of the program file with the given index.
func (d *Disk) Extract(index int) (container.Image, error) {
	file, err := d.ReadFile(index)
	if err != nil {
		return container.Image{}, err
	}
	if len(file) < 2 {
		return container.Image{}, container.Errorf(format, 0, "file '%s' too short for a load address", d.Entries[index].Name)
	}
	return container.Image{
		Name:   d.Entries[index].Name,
		Origin: uint16(file[0]) | uint16(file[1])<<8,
		Data:   file[2:],
	}, nil
}

// List returns the directory of the disk.
func (d *Disk) List() []container.Entry {
	entries := make([]container.Entry, 0, len(d.Entries))
	for i, e := range d.Entries {
		entries = append(entries, container.Entry{
			Index:  i,
			Name:   e.Name,
			Type:   e.Type(),
			Size:   e.Blocks * sectorDataSize,
			Blocks: e.Blocks,
		})
	}
	return entries
}

// FirstProgram returns the index of the first program file of the directory.
func (d *Disk) FirstProgram() (int, bool) {
	for i, e := range d.Entries {
		if e.FileType == 2 {
			return i, true
		}
	}
	return 0, false
}
