// Package program contains the classification model of a loaded image: the raw
// bytes, a block type per byte and all annotations that are keyed by address.
package program

import (
	"errors"
	"fmt"

	"github.com/retroenv/retroworkbench/internal/symbols"
)

// AddressSpaceSize is the size of the 6502 address space.
const AddressSpaceSize = 0x10000

var (
	ErrOutOfBounds      = errors.New("address out of bounds")
	ErrOddLength        = errors.New("region length must be even")
	ErrInvalidRange     = errors.New("invalid range")
	ErrRangeOverlap     = errors.New("range overlaps a collapsed range")
	ErrRangeNotFound    = errors.New("collapsed range not found")
	ErrDuplicateLabel   = errors.New("duplicate label name")
	ErrLabelNotFound    = errors.New("label not found")
	ErrEmptyLabelName   = errors.New("empty label name")
	ErrInvalidLabelName = errors.New("invalid label name")
	ErrUnknownBlockType = errors.New("unknown block type")
	ErrImageTooLarge    = errors.New("image does not fit into the address space")
)

// Program is the classification model of a binary image.
type Program struct {
	origin     uint16
	data       []byte
	blockTypes []BlockType

	labels     *symbols.Manager[[]Label]
	labelNames map[string]uint16

	sideComments     *symbols.Manager[string]
	lineComments     *symbols.Manager[string]
	immediateFormats *symbols.Manager[ImmediateFormat]
	splitters        *symbols.Manager[struct{}]
	collapsed        []Range

	// EntryHint is an optional entry point reported by the container, like the
	// program counter of a snapshot.
	EntryHint    uint16
	HasEntryHint bool
}

// New creates a new program of the data located at origin. All bytes start as
// undefined.
func New(origin uint16, data []byte) (*Program, error) {
	if int(origin)+len(data) > AddressSpaceSize {
		return nil, fmt.Errorf("%w: $%04x + %d bytes", ErrImageTooLarge, origin, len(data))
	}
	return &Program{
		origin:           origin,
		data:             data,
		blockTypes:       make([]BlockType, len(data)),
		labels:           symbols.New[[]Label](),
		labelNames:       map[string]uint16{},
		sideComments:     symbols.New[string](),
		lineComments:     symbols.New[string](),
		immediateFormats: symbols.New[ImmediateFormat](),
		splitters:        symbols.New[struct{}](),
	}, nil
}

// Origin returns the address of the first byte of the image.
func (p *Program) Origin() uint16 {
	return p.origin
}

// Data returns the raw bytes of the image. The slice must not be modified.
func (p *Program) Data() []byte {
	return p.data
}

// Len returns the number of bytes of the image.
func (p *Program) Len() int {
	return len(p.data)
}

// End returns the address after the last byte of the image. It can be $10000.
func (p *Program) End() int {
	return int(p.origin) + len(p.data)
}

// Contains returns whether the address is part of the image.
func (p *Program) Contains(address uint16) bool {
	return int(address) >= int(p.origin) && int(address) < p.End()
}

// Offset returns the offset of the address in the image.
func (p *Program) Offset(address uint16) (int, bool) {
	if !p.Contains(address) {
		return 0, false
	}
	return int(address - p.origin), true
}

// AddressOf returns the address of an image offset.
func (p *Program) AddressOf(offset int) uint16 {
	return p.origin + uint16(offset)
}

// Byte returns the byte at the address.
func (p *Program) Byte(address uint16) (byte, bool) {
	offset, ok := p.Offset(address)
	if !ok {
		return 0, false
	}
	return p.data[offset], true
}

// Bytes returns up to length bytes starting at the address, limited to the image.
func (p *Program) Bytes(address uint16, length int) []byte {
	offset, ok := p.Offset(address)
	if !ok {
		return nil
	}
	end := min(offset+length, len(p.data))
	return p.data[offset:end]
}

// BlockTypeAt returns the block type of the byte at the offset.
func (p *Program) BlockTypeAt(offset int) BlockType {
	if offset < 0 || offset >= len(p.blockTypes) {
		return Undefined
	}
	return p.blockTypes[offset]
}

// BlockType returns the block type of the byte at the address.
func (p *Program) BlockType(address uint16) BlockType {
	offset, ok := p.Offset(address)
	if !ok {
		return Undefined
	}
	return p.blockTypes[offset]
}

// BlockTypes returns a copy of the block types of the inclusive offset range.
func (p *Program) BlockTypes(start, end int) []BlockType {
	if start < 0 || end >= len(p.blockTypes) || start > end {
		return nil
	}
	types := make([]BlockType, end-start+1)
	copy(types, p.blockTypes[start:end+1])
	return types
}

// SetBlockTypeRegion classifies the inclusive offset range as the given type.
// Regions of paired types need an even length.
func (p *Program) SetBlockTypeRegion(typ BlockType, start, end int) error {
	if err := p.checkRegion(start, end); err != nil {
		return err
	}
	if typ.IsPaired() && (end-start+1)%2 != 0 {
		return fmt.Errorf("%w: %s region $%04x-$%04x has %d bytes",
			ErrOddLength, typ, p.AddressOf(start), p.AddressOf(end), end-start+1)
	}
	for i := start; i <= end; i++ {
		p.blockTypes[i] = typ
	}
	return nil
}

// RestoreBlockTypes writes previously saved block types starting at the offset.
func (p *Program) RestoreBlockTypes(start int, types []BlockType) error {
	if len(types) == 0 {
		return nil
	}
	if err := p.checkRegion(start, start+len(types)-1); err != nil {
		return err
	}
	copy(p.blockTypes[start:], types)
	return nil
}

func (p *Program) checkRegion(start, end int) error {
	if start < 0 || end >= len(p.data) {
		return fmt.Errorf("%w: region %d-%d, image has %d bytes", ErrOutOfBounds, start, end, len(p.data))
	}
	if start > end {
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidRange, start, end)
	}
	return nil
}

// SetOrigin moves the image to a new origin. User annotations that are keyed
// by an address inside the image move with the bytes they annotate.
func (p *Program) SetOrigin(origin uint16) error {
	if int(origin)+len(p.data) > AddressSpaceSize {
		return fmt.Errorf("%w: $%04x + %d bytes", ErrImageTooLarge, origin, len(p.data))
	}
	if origin == p.origin {
		return nil
	}

	oldOrigin, oldEnd := int(p.origin), p.End()
	relocate := func(address uint16) (uint16, bool) {
		a := int(address)
		if a < oldOrigin || a > oldEnd {
			return address, false
		}
		return uint16(a - oldOrigin + int(origin)), true
	}

	labels := symbols.New[[]Label]()
	for address, list := range p.labels.All() {
		for _, l := range list {
			target := address
			if l.Kind == UserLabel {
				if moved, ok := relocate(address); ok && int(address) < oldEnd {
					target = moved
				}
			}
			existing, _ := labels.Get(target)
			labels.Set(target, append(existing, l))
		}
	}
	p.labels = labels
	p.rebuildLabelIndex()

	p.sideComments = relocateManager(p.sideComments, relocate, oldEnd)
	p.lineComments = relocateManager(p.lineComments, relocate, oldEnd)
	p.immediateFormats = relocateManager(p.immediateFormats, relocate, oldEnd)
	p.splitters = relocateManager(p.splitters, relocate, oldEnd+1)
	p.origin = origin
	return nil
}

func relocateManager[T any](m *symbols.Manager[T], relocate func(uint16) (uint16, bool), end int) *symbols.Manager[T] {
	result := symbols.New[T]()
	for address, item := range m.All() {
		if moved, ok := relocate(address); ok && int(address) < end {
			address = moved
		}
		result.Set(address, item)
	}
	return result
}

func (p *Program) rebuildLabelIndex() {
	clear(p.labelNames)
	for address, list := range p.labels.All() {
		for i, l := range list {
			// keep the user, system, auto order after merging lists
			for j := i; j > 0 && list[j-1].Kind > list[j].Kind; j-- {
				list[j-1], list[j] = list[j], list[j-1]
			}
			p.labelNames[l.Name] = address
		}
	}
}

// Annotations is a snapshot of all address keyed user data of a program.
type Annotations struct {
	labels           *symbols.Manager[[]Label]
	sideComments     *symbols.Manager[string]
	lineComments     *symbols.Manager[string]
	immediateFormats *symbols.Manager[ImmediateFormat]
	splitters        *symbols.Manager[struct{}]
	origin           uint16
}

// SaveAnnotations returns a snapshot of the origin and all address keyed data.
func (p *Program) SaveAnnotations() Annotations {
	return Annotations{
		labels:           p.labels.Clone(),
		sideComments:     p.sideComments.Clone(),
		lineComments:     p.lineComments.Clone(),
		immediateFormats: p.immediateFormats.Clone(),
		splitters:        p.splitters.Clone(),
		origin:           p.origin,
	}
}

// RestoreAnnotations restores a snapshot created by SaveAnnotations.
func (p *Program) RestoreAnnotations(a Annotations) {
	p.labels = a.labels.Clone()
	p.sideComments = a.sideComments.Clone()
	p.lineComments = a.lineComments.Clone()
	p.immediateFormats = a.immediateFormats.Clone()
	p.splitters = a.splitters.Clone()
	p.origin = a.origin
	p.rebuildLabelIndex()
}

// Validate checks the model invariants.
func (p *Program) Validate() error {
	if len(p.blockTypes) != len(p.data) {
		return fmt.Errorf("block type count %d does not match byte count %d", len(p.blockTypes), len(p.data))
	}

	names := map[string]struct{}{}
	for address, list := range p.labels.All() {
		for _, l := range list {
			if _, ok := names[l.Name]; ok {
				return fmt.Errorf("%w: '%s' at $%04x", ErrDuplicateLabel, l.Name, address)
			}
			names[l.Name] = struct{}{}
		}
	}

	for _, address := range p.splitters.Addresses() {
		if int(address) < int(p.origin) || int(address) > p.End() {
			return fmt.Errorf("%w: splitter at $%04x", ErrOutOfBounds, address)
		}
	}

	for i, r := range p.collapsed {
		if r.Start < 0 || r.Start >= r.End || r.End > len(p.data) {
			return fmt.Errorf("%w: collapsed range %d-%d", ErrInvalidRange, r.Start, r.End)
		}
		if i > 0 && p.collapsed[i-1].End >= r.Start {
			return fmt.Errorf("%w: collapsed range %d-%d", ErrRangeOverlap, r.Start, r.End)
		}
	}
	return nil
}
