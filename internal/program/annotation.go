package program

import (
	"fmt"
	"strings"
)

// SideComment returns the user comment shown at the end of the line of the address.
func (p *Program) SideComment(address uint16) (string, bool) {
	return p.sideComments.Get(address)
}

// SetSideComment sets the side comment of the address, an empty text removes it.
func (p *Program) SetSideComment(address uint16, text string) error {
	return setComment(p, address, text, p.sideComments.Set, p.sideComments.Delete)
}

// SideCommentAddresses returns all addresses with side comments in ascending order.
func (p *Program) SideCommentAddresses() []uint16 {
	return p.sideComments.Addresses()
}

// LineComment returns the user comment shown on its own line before the address.
func (p *Program) LineComment(address uint16) (string, bool) {
	return p.lineComments.Get(address)
}

// SetLineComment sets the line comment of the address, an empty text removes it.
func (p *Program) SetLineComment(address uint16, text string) error {
	return setComment(p, address, text, p.lineComments.Set, p.lineComments.Delete)
}

// LineCommentAddresses returns all addresses with line comments in ascending order.
func (p *Program) LineCommentAddresses() []uint16 {
	return p.lineComments.Addresses()
}

func setComment(p *Program, address uint16, text string,
	set func(uint16, string), del func(uint16) bool) error {

	if !p.Contains(address) {
		return fmt.Errorf("%w: comment at $%04x", ErrOutOfBounds, address)
	}
	text = strings.TrimRight(text, " \t\r\n")
	if text == "" {
		del(address)
		return nil
	}
	set(address, text)
	return nil
}

// ToggleSplitter adds or removes a splitter at the address. Splitters can be
// placed at any address of the image and directly after its last byte.
func (p *Program) ToggleSplitter(address uint16) error {
	if int(address) < int(p.origin) || int(address) > p.End() {
		return fmt.Errorf("%w: splitter at $%04x", ErrOutOfBounds, address)
	}
	if !p.splitters.Delete(address) {
		p.splitters.Set(address, struct{}{})
	}
	return nil
}

// IsSplitter returns whether a splitter exists at the address.
func (p *Program) IsSplitter(address uint16) bool {
	return p.splitters.Has(address)
}

// Splitters returns all splitter addresses in ascending order.
func (p *Program) Splitters() []uint16 {
	return p.splitters.Addresses()
}

// ImmediateKind defines how an immediate operand value is rendered.
type ImmediateKind uint8

// immediate formats.
const (
	ImmediateHex ImmediateKind = iota
	ImmediateInvertedHex
	ImmediateDecimal
	ImmediateNegativeDecimal
	ImmediateBinary
	ImmediateInvertedBinary
	ImmediateLowByte
	ImmediateHighByte
)

var immediateKindNames = map[ImmediateKind]string{
	ImmediateHex:             "hex",
	ImmediateInvertedHex:     "inverted_hex",
	ImmediateDecimal:         "decimal",
	ImmediateNegativeDecimal: "negative_decimal",
	ImmediateBinary:          "binary",
	ImmediateInvertedBinary:  "inverted_binary",
	ImmediateLowByte:         "low_byte",
	ImmediateHighByte:        "high_byte",
}

func (k ImmediateKind) String() string {
	return immediateKindNames[k]
}

// ParseImmediateKind returns the immediate format for a name.
func ParseImmediateKind(name string) (ImmediateKind, error) {
	for kind, s := range immediateKindNames {
		if s == name {
			return kind, nil
		}
	}
	return ImmediateHex, fmt.Errorf("unknown immediate format '%s'", name)
}

// ImmediateFormat is the rendering choice of the immediate operand of an instruction.
// Target is the referenced address for the low and high byte formats.
type ImmediateFormat struct {
	Kind   ImmediateKind
	Target uint16
}

// HasTarget returns whether the format references an address.
func (f ImmediateFormat) HasTarget() bool {
	return f.Kind == ImmediateLowByte || f.Kind == ImmediateHighByte
}

// ImmediateFormat returns the immediate format of the instruction at the address.
func (p *Program) ImmediateFormat(address uint16) (ImmediateFormat, bool) {
	return p.immediateFormats.Get(address)
}

// SetImmediateFormat sets the immediate format of the instruction at the address.
// Setting the hex format without a target removes the entry.
func (p *Program) SetImmediateFormat(address uint16, format ImmediateFormat) error {
	if !p.Contains(address) {
		return fmt.Errorf("%w: immediate format at $%04x", ErrOutOfBounds, address)
	}
	if format == (ImmediateFormat{}) {
		p.immediateFormats.Delete(address)
		return nil
	}
	p.immediateFormats.Set(address, format)
	return nil
}

// ImmediateFormatAddresses returns all addresses with immediate formats in ascending order.
func (p *Program) ImmediateFormatAddresses() []uint16 {
	return p.immediateFormats.Addresses()
}
