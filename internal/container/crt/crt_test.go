package crt

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/retroenv/retroworkbench/internal/container"
	"github.com/retroenv/retrogolib/assert"
)

func header(name string) []byte {
	h := make([]byte, 0x40)
	copy(h, magic)
	binary.BigEndian.PutUint32(h[0x10:], 0x40)
	binary.BigEndian.PutUint16(h[0x14:], 0x0100)
	binary.BigEndian.PutUint16(h[0x16:], 0)
	copy(h[0x20:], name)
	return h
}

func chip(bank, load uint16, rom []byte) []byte {
	p := make([]byte, chipHeaderLength, chipHeaderLength+len(rom))
	copy(p, chipTag)
	binary.BigEndian.PutUint32(p[4:], uint32(chipHeaderLength+len(rom)))
	binary.BigEndian.PutUint16(p[0x0A:], bank)
	binary.BigEndian.PutUint16(p[0x0C:], load)
	binary.BigEndian.PutUint16(p[0x0E:], uint16(len(rom)))
	return append(p, rom...)
}

func TestParse(t *testing.T) {
	data := header("TEST CART")
	data = append(data, chip(0, 0x8000, []byte{1, 2, 3, 4})...)
	data = append(data, chip(1, 0x8002, []byte{9, 9, 9, 9})...)

	cart, err := Parse(data)
	assert.NoError(t, err)
	assert.Equal(t, "TEST CART", cart.Name)
	assert.Len(t, cart.Chips, 2)
	assert.Equal(t, uint16(0x8002), cart.Chips[1].LoadAddress)

	img, err := cart.Flatten()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x8000), img.Origin)
	// the first chip wins in the overlapping range
	assert.Equal(t, []byte{1, 2, 3, 4, 9, 9}, img.Data)
}

func TestParseErrors(t *testing.T) {
	var parseErr *container.ParseError

	_, err := Parse([]byte("C64"))
	assert.True(t, errors.As(err, &parseErr))

	bad := header("X")
	bad[0] = 'X'
	_, err = Parse(bad)
	assert.ErrorContains(t, err, "invalid signature")

	_, err = Parse(header("X"))
	assert.ErrorContains(t, err, "no chip packets")

	truncated := append(header("X"), chip(0, 0x8000, []byte{1, 2, 3, 4})...)
	truncated = truncated[:len(truncated)-2]
	_, err = Parse(truncated)
	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 0x40+0x0E, parseErr.Offset)

	short := append(header("X"), chip(0, 0x8000, nil)...)
	binary.BigEndian.PutUint32(short[0x44:], 8)
	_, err = Parse(short)
	assert.ErrorContains(t, err, "shorter than its header")

	tail := append(header("X"), []byte("CHIP")...)
	_, err = Parse(tail)
	assert.ErrorContains(t, err, "packet header truncated")
}
