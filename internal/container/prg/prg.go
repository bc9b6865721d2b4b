// Package prg parses CBM program files that start with a little endian load address.
package prg

import (
	"encoding/binary"

	"github.com/retroenv/retroworkbench/internal/container"
)

const format = "prg"

// Parse splits a program file into load address and body.
func Parse(data []byte) (container.Image, error) {
	if len(data) < 2 {
		return container.Image{}, container.Errorf(format, len(data), "file too short for a load address")
	}
	return container.Image{
		Origin: binary.LittleEndian.Uint16(data),
		Data:   data[2:],
	}, nil
}
