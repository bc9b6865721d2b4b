// Package options contains the program options and the document settings.
package options

import (
	"fmt"
	"strconv"
	"strings"
)

// Parameters contains file path options.
type Parameters struct {
	Input        string // file to load
	ImportLabels string // VICE label file to import
	ExportLabels string // VICE label file to write
	ExportAsm    string // assembly file to write, - for stdout
	Save         string // project file to write
	Script       string // Lua script to run before exporting
	Batch        string // glob pattern of files to process
}

// Flags contains behavior options.
type Flags struct {
	Assembler string
	Platform  string
	Origin    string // load address of raw binaries
	Entry     int    // container directory entry, -1 selects the first program

	Version  bool
	Headless bool
	Illegal  bool
	Verify   bool
	Debug    bool
	Quiet    bool
}

// Program options of the workbench.
type Program struct {
	Parameters
	Flags
}

// DefaultRawOrigin is the load address of raw binaries without an origin option.
const DefaultRawOrigin = 0x1000

// RawOrigin returns the parsed origin option or the default raw origin.
func (p Program) RawOrigin() (uint16, error) {
	if p.Origin == "" {
		return DefaultRawOrigin, nil
	}
	return ParseAddress(p.Origin)
}

// ParseAddress parses an address in the formats $c000, 0xc000 or decimal.
func ParseAddress(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	base := 10
	switch {
	case strings.HasPrefix(s, "$"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	}
	value, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address '%s': %w", s, err)
	}
	return uint16(value), nil
}
