package program

import (
	"fmt"
	"slices"
	"strings"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
)

// LabelKind defines who created a label.
// The order of the constants is the order of labels at an address.
type LabelKind uint8

// label kinds.
const (
	UserLabel LabelKind = iota
	SystemLabel
	AutoLabel
)

var labelKindNames = map[LabelKind]string{
	UserLabel:   "user",
	SystemLabel: "system",
	AutoLabel:   "auto",
}

func (k LabelKind) String() string {
	return labelKindNames[k]
}

// ParseLabelKind returns the label kind for a name.
func ParseLabelKind(name string) (LabelKind, error) {
	for kind, s := range labelKindNames {
		if s == name {
			return kind, nil
		}
	}
	return UserLabel, fmt.Errorf("unknown label kind '%s'", name)
}

// LabelType defines the role of the labelled address.
type LabelType uint8

// label types.
const (
	Branch LabelType = iota
	Jump
	Subroutine
	ZeroPageField
	Field
	Pointer
	ZeroPagePointer
	AbsoluteAddress
	ZeroPageAbsoluteAddress
	ExternalJump
	Predefined
	UserDefined
)

var labelTypeNames = map[LabelType]string{
	Branch:                  "branch",
	Jump:                    "jump",
	Subroutine:              "subroutine",
	ZeroPageField:           "zp_field",
	Field:                   "field",
	Pointer:                 "pointer",
	ZeroPagePointer:         "zp_pointer",
	AbsoluteAddress:         "absolute_address",
	ZeroPageAbsoluteAddress: "zp_absolute_address",
	ExternalJump:            "external_jump",
	Predefined:              "predefined",
	UserDefined:             "user_defined",
}

func (t LabelType) String() string {
	return labelTypeNames[t]
}

// ParseLabelType returns the label type for a name.
func ParseLabelType(name string) (LabelType, error) {
	for typ, s := range labelTypeNames {
		if s == name {
			return typ, nil
		}
	}
	return UserDefined, fmt.Errorf("unknown label type '%s'", name)
}

// auto label prefixes and whether a zero page address is printed with 2 digits.
var autoLabelFormats = map[LabelType]struct {
	prefix     string
	shortForZP bool
}{
	Subroutine:              {"s", true},
	Jump:                    {"j", true},
	Branch:                  {"b", true},
	ZeroPageField:           {"f", true},
	ZeroPagePointer:         {"p", true},
	ZeroPageAbsoluteAddress: {"a", true},
	Field:                   {"f", false},
	Pointer:                 {"p", false},
	AbsoluteAddress:         {"a", false},
	ExternalJump:            {"e", false},
}

// AutoLabelName returns the generated name of an auto label of the given type.
func AutoLabelName(typ LabelType, address uint16) string {
	format, ok := autoLabelFormats[typ]
	if !ok {
		return fmt.Sprintf("l%04X", address)
	}
	if address <= 0xFF && format.shortForZP {
		return fmt.Sprintf("%s%02X", format.prefix, address)
	}
	return fmt.Sprintf("%s%04X", format.prefix, address)
}

// autoLabelPriority orders label types when several roles hit one address,
// a lower value wins.
var autoLabelPriority = map[LabelType]int{
	Subroutine:              0,
	Jump:                    1,
	Branch:                  2,
	ZeroPagePointer:         3,
	Pointer:                 3,
	ZeroPageField:           4,
	Field:                   4,
	ZeroPageAbsoluteAddress: 5,
	AbsoluteAddress:         5,
	ExternalJump:            6,
}

// Outranks returns whether an auto label of type t wins over one of type other.
func (t LabelType) Outranks(other LabelType) bool {
	p1, ok1 := autoLabelPriority[t]
	p2, ok2 := autoLabelPriority[other]
	if !ok1 {
		return false
	}
	if !ok2 {
		return true
	}
	return p1 < p2
}

// Label is a named address.
type Label struct {
	Name string
	Type LabelType
	Kind LabelKind
}

// ValidateLabelName returns an error if the name can not be used as a label in
// assembly source.
func ValidateLabelName(name string) error {
	if name == "" {
		return ErrEmptyLabelName
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return fmt.Errorf("%w '%s': unexpected character '%c'", ErrInvalidLabelName, name, c)
		}
	}
	if m6502.IsMnemonic(strings.ToLower(name), true) {
		return fmt.Errorf("%w '%s': name is an instruction", ErrInvalidLabelName, name)
	}
	return nil
}

// Labels returns all labels at the address in their display order.
func (p *Program) Labels(address uint16) []Label {
	labels, _ := p.labels.Get(address)
	return labels
}

// PrimaryLabel returns the first label at the address.
func (p *Program) PrimaryLabel(address uint16) (Label, bool) {
	labels, _ := p.labels.Get(address)
	if len(labels) == 0 {
		return Label{}, false
	}
	return labels[0], true
}

// LabelAddress returns the address of the label with the given name.
func (p *Program) LabelAddress(name string) (uint16, bool) {
	address, ok := p.labelNames[name]
	return address, ok
}

// LabelAddresses returns all addresses that have labels in ascending order.
func (p *Program) LabelAddresses() []uint16 {
	return p.labels.Addresses()
}

// UserLabelAt returns the user label at the address.
func (p *Program) UserLabelAt(address uint16) (Label, bool) {
	for _, l := range p.Labels(address) {
		if l.Kind == UserLabel {
			return l, true
		}
	}
	return Label{}, false
}

// HasNonAutoLabel returns whether a user or system label exists at the address.
func (p *Program) HasNonAutoLabel(address uint16) bool {
	for _, l := range p.Labels(address) {
		if l.Kind != AutoLabel {
			return true
		}
	}
	return false
}

// SetUserLabel sets or replaces the user label at the address.
func (p *Program) SetUserLabel(address uint16, name string, typ LabelType) error {
	if err := ValidateLabelName(name); err != nil {
		return err
	}
	if other, ok := p.labelNames[name]; ok {
		holder := p.labelByName(other, name)
		existing, _ := p.UserLabelAt(address)
		switch {
		case holder.Kind == AutoLabel:
			p.removeLabelKind(other, AutoLabel)
		case other == address && existing.Name == name:
		default:
			return fmt.Errorf("%w: '%s' is used at $%04x", ErrDuplicateLabel, name, other)
		}
	}

	p.removeLabelKind(address, UserLabel)
	p.insertLabel(address, Label{Name: name, Type: typ, Kind: UserLabel})
	return nil
}

// RemoveUserLabel removes the user label at the address.
func (p *Program) RemoveUserLabel(address uint16) error {
	if _, ok := p.UserLabelAt(address); !ok {
		return fmt.Errorf("%w at $%04x", ErrLabelNotFound, address)
	}
	p.removeLabelKind(address, UserLabel)
	return nil
}

// AddSystemLabel adds a platform defined label. Existing auto labels with the
// same name are removed.
func (p *Program) AddSystemLabel(address uint16, name string, typ LabelType) error {
	if other, ok := p.labelNames[name]; ok {
		if p.labelByName(other, name).Kind != AutoLabel {
			return fmt.Errorf("%w: '%s' is used at $%04x", ErrDuplicateLabel, name, other)
		}
		p.removeLabelKind(other, AutoLabel)
	}
	p.insertLabel(address, Label{Name: name, Type: typ, Kind: SystemLabel})
	return nil
}

// ClearSystemLabels removes all platform defined labels.
func (p *Program) ClearSystemLabels() {
	for _, address := range p.labels.Addresses() {
		p.removeLabelKind(address, SystemLabel)
	}
}

// ClearAutoLabels removes all labels generated by the analyzer.
func (p *Program) ClearAutoLabels() {
	for _, address := range p.labels.Addresses() {
		p.removeLabelKind(address, AutoLabel)
	}
}

// AddAutoLabel adds a generated label of the given type. The label is skipped if
// a user or system label exists at the address or its name is already taken.
// An existing auto label at the address is replaced if the new type outranks it.
func (p *Program) AddAutoLabel(address uint16, typ LabelType) bool {
	if p.HasNonAutoLabel(address) {
		return false
	}
	for _, l := range p.Labels(address) {
		if l.Kind == AutoLabel && !typ.Outranks(l.Type) {
			return false
		}
	}

	name := AutoLabelName(typ, address)
	if _, ok := p.labelNames[name]; ok {
		return false
	}
	p.removeLabelKind(address, AutoLabel)
	p.insertLabel(address, Label{Name: name, Type: typ, Kind: AutoLabel})
	return true
}

func (p *Program) labelByName(address uint16, name string) Label {
	for _, l := range p.Labels(address) {
		if l.Name == name {
			return l
		}
	}
	return Label{}
}

// insertLabel adds the label keeping the user, system, auto order.
func (p *Program) insertLabel(address uint16, label Label) {
	labels, _ := p.labels.Get(address)
	i := len(labels)
	for j, l := range labels {
		if l.Kind > label.Kind {
			i = j
			break
		}
	}
	labels = slices.Insert(slices.Clone(labels), i, label)
	p.labels.Set(address, labels)
	p.labelNames[label.Name] = address
}

func (p *Program) removeLabelKind(address uint16, kind LabelKind) {
	labels, ok := p.labels.Get(address)
	if !ok {
		return
	}
	kept := make([]Label, 0, len(labels))
	for _, l := range labels {
		if l.Kind == kind {
			delete(p.labelNames, l.Name)
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		p.labels.Delete(address)
		return
	}
	p.labels.Set(address, kept)
}

// RestoreLabel adds a label of any kind, used when loading persisted state.
func (p *Program) RestoreLabel(address uint16, label Label) error {
	if err := ValidateLabelName(label.Name); err != nil {
		return err
	}
	if other, ok := p.labelNames[label.Name]; ok {
		return fmt.Errorf("%w: '%s' is used at $%04x", ErrDuplicateLabel, label.Name, other)
	}
	p.insertLabel(address, label)
	return nil
}
