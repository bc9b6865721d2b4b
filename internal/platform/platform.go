// Package platform contains the machine profiles with their system symbols and
// code entry point conventions.
package platform

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/cpu6502"
	"github.com/retroenv/retroworkbench/internal/program"
)

// ErrUnknownPlatform is returned for unsupported platform names.
var ErrUnknownPlatform = errors.New("unknown platform")

// Symbol is a named address of the platform.
type Symbol struct {
	Address uint16
	Name    string
	Type    program.LabelType
}

// Cartridge describes the autostart signature of cartridges.
type Cartridge struct {
	SignatureAddress uint16
	Signature        []byte
	ColdStart        uint16 // address of the cold start vector
	WarmStart        uint16 // address of the warm start vector
}

// Platform is a machine profile.
type Platform struct {
	Name       string
	BasicStart uint16 // load address of BASIC programs
	Cartridge  *Cartridge
	Symbols    []Symbol
}

const sysToken = 0x9E

var platforms = map[string]*Platform{
	"c64":   c64,
	"vic20": vic20,
	"plus4": plus4,
	"pet":   pet,
}

// Get returns the platform with the given name.
func Get(name string) (*Platform, error) {
	p, ok := platforms[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w '%s', supported: %s", ErrUnknownPlatform, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the names of all supported platforms.
func Names() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ApplySymbols adds the platform symbols as system labels to the program.
// Symbols whose name is already used by another label are returned.
func (p *Platform) ApplySymbols(prg *program.Program) []Symbol {
	prg.ClearSystemLabels()

	var skipped []Symbol
	for _, sym := range p.Symbols {
		if err := prg.AddSystemLabel(sym.Address, sym.Name, sym.Type); err != nil {
			skipped = append(skipped, sym)
		}
	}
	return skipped
}

// EntryPoints returns the code entry points that the platform conventions define
// for the loaded image: the hardware vectors if the image covers them, the
// cartridge start vectors if the autostart signature is present and the target
// of a BASIC SYS line at the start of the image.
func (p *Platform) EntryPoints(prg *program.Program) []uint16 {
	var entries []uint16
	add := func(address uint16) {
		if prg.Contains(address) && !slices.Contains(entries, address) {
			entries = append(entries, address)
		}
	}

	for _, vector := range []uint16{cpu6502.ResetAddress, cpu6502.NMIAddress, cpu6502.IrqAddress} {
		if target, ok := readWord(prg, vector); ok {
			add(target)
		}
	}

	if c := p.Cartridge; c != nil {
		if signature := prg.Bytes(c.SignatureAddress, len(c.Signature)); slices.Equal(signature, c.Signature) {
			for _, vector := range []uint16{c.ColdStart, c.WarmStart} {
				if target, ok := readWord(prg, vector); ok {
					add(target)
				}
			}
		}
	}

	if target, ok := p.BasicSysTarget(prg); ok {
		add(target)
	}
	return entries
}

// BasicSysTarget parses a BASIC line like `10 SYS2061` at the BASIC start
// address and returns the called address.
func (p *Platform) BasicSysTarget(prg *program.Program) (uint16, bool) {
	if prg.Origin() != p.BasicStart {
		return 0, false
	}
	line := prg.Bytes(p.BasicStart, 32)
	if len(line) < 6 {
		return 0, false
	}

	// skip the next line pointer and the line number
	rest := line[4:]
	if rest[0] != sysToken {
		return 0, false
	}
	rest = rest[1:]
	for len(rest) > 0 && (rest[0] == ' ' || rest[0] == '(') {
		rest = rest[1:]
	}

	value, digits := 0, 0
	for _, b := range rest {
		if b < '0' || b > '9' {
			break
		}
		value = value*10 + int(b-'0')
		digits++
		if value > 0xFFFF {
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	return uint16(value), true
}

func readWord(prg *program.Program, address uint16) (uint16, bool) {
	data := prg.Bytes(address, 2)
	if len(data) != 2 {
		return 0, false
	}
	return uint16(data[1])<<8 | uint16(data[0]), true
}
