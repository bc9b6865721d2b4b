package d64

import (
	"errors"
	"testing"

	"github.com/retroenv/retroworkbench/internal/container"
	"github.com/retroenv/retrogolib/assert"
)

func emptyDisk(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	d := &Disk{Tracks: imageSizes[size], data: data}

	bam, err := d.sector(directoryTrack, bamSector)
	assert.NoError(t, err)
	bam[0], bam[1] = directoryTrack, directorySector
	copy(bam[0x90:], "TESTDISK\xa0\xa0\xa0\xa0\xa0\xa0\xa0\xa0")
	copy(bam[0xA2:], "01")

	dir, err := d.sector(directoryTrack, directorySector)
	assert.NoError(t, err)
	dir[0], dir[1] = 0, 0xFF
	return data
}

func addEntry(t *testing.T, data []byte, slot int, name string, track, sector byte) {
	t.Helper()
	d := &Disk{Tracks: imageSizes[len(data)], data: data}
	dir, err := d.sector(directoryTrack, directorySector)
	assert.NoError(t, err)

	e := dir[slot*dirEntrySize:]
	e[2] = 0x82
	e[3], e[4] = track, sector
	for i := range 16 {
		e[5+i] = 0xA0
	}
	copy(e[5:], name)
	e[30] = 1
}

func TestExtract(t *testing.T) {
	data := emptyDisk(t, 174848)
	addEntry(t, data, 0, "TEST", 1, 0)

	// next=0, last_used=6, payload=01 08 EA EA 60
	copy(data[0:], []byte{0x00, 0x06, 0x01, 0x08, 0xEA, 0xEA, 0x60})

	disk, err := Parse(data)
	assert.NoError(t, err)
	assert.Equal(t, "TESTDISK", disk.Name)
	assert.Len(t, disk.Entries, 1)
	assert.Equal(t, "TEST", disk.Entries[0].Name)
	assert.Equal(t, "prg", disk.Entries[0].Type())

	img, err := disk.Extract(0)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0801), img.Origin)
	assert.Equal(t, []byte{0xEA, 0xEA, 0x60}, img.Data)

	index, ok := disk.FirstProgram()
	assert.True(t, ok)
	assert.Equal(t, 0, index)
	assert.Len(t, disk.List(), 1)
}

func TestMultiSectorFile(t *testing.T) {
	data := emptyDisk(t, 196608)
	addEntry(t, data, 0, "LONG", 1, 0)

	// track 1 sector 0 links to track 1 sector 1
	data[0], data[1] = 1, 1
	for i := 2; i < sectorSize; i++ {
		data[i] = byte(i)
	}
	second := data[sectorSize:]
	second[0], second[1] = 0, 3
	second[2], second[3] = 0xAA, 0xBB

	disk, err := Parse(data)
	assert.NoError(t, err)
	assert.Equal(t, 40, disk.Tracks)

	file, err := disk.ReadFile(0)
	assert.NoError(t, err)
	assert.Len(t, file, sectorDataSize+2)
	assert.Equal(t, []byte{0xAA, 0xBB}, file[sectorDataSize:])
}

func TestChainErrors(t *testing.T) {
	data := emptyDisk(t, 174848)
	addEntry(t, data, 0, "LOOP", 1, 0)
	addEntry(t, data, 1, "BAD", 36, 0)
	data[0], data[1] = 1, 0 // links to itself

	disk, err := Parse(data)
	assert.NoError(t, err)

	_, err = disk.ReadFile(0)
	assert.ErrorContains(t, err, "sector chain loop")

	_, err = disk.ReadFile(1)
	assert.True(t, errors.Is(err, ErrInvalidSector))

	_, err = disk.ReadFile(2)
	assert.True(t, errors.Is(err, container.ErrEntryNotFound))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(make([]byte, 1000))
	var parseErr *container.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestSectorsPerTrack(t *testing.T) {
	assert.Equal(t, 21, SectorsPerTrack(1))
	assert.Equal(t, 19, SectorsPerTrack(18))
	assert.Equal(t, 18, SectorsPerTrack(30))
	assert.Equal(t, 17, SectorsPerTrack(40))
	assert.Equal(t, 0, SectorsPerTrack(41))

	total := 0
	for track := 1; track <= 35; track++ {
		total += SectorsPerTrack(track)
	}
	assert.Equal(t, 683, total)
}
