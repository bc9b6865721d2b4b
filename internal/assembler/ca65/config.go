package ca65

import (
	"fmt"
	"strings"
)

const (
	memoryConfig = `
MEMORY {
    ZP:          start = $00,    size = $100,    type = rw, file = "";
    MAIN:        start = $%04X,  size = $%04X,   type = rw, file = %%O;
}
`

	segmentsConfig = `
SEGMENTS {
    ZEROPAGE:    load = ZP,   type = zp,  optional = yes;
    CODE:        load = MAIN, type = rw;
}
`
)

// GenerateLinkerConfig generates a ld65 linker config that places the code
// segment at the origin and writes the plain image without load address.
func GenerateLinkerConfig(origin uint16, size int) (string, error) {
	if size <= 0 || int(origin)+size > 0x10000 {
		return "", fmt.Errorf("invalid image size %d at $%04x", size, origin)
	}

	buf := &strings.Builder{}
	if _, err := fmt.Fprintf(buf, memoryConfig, origin, size); err != nil {
		return "", fmt.Errorf("writing memory config: %w", err)
	}
	buf.WriteString(segmentsConfig)
	return buf.String(), nil
}
