package program

import "fmt"

// BlockType defines the classification of a single byte of the image.
type BlockType uint8

// block types.
const (
	Undefined BlockType = iota
	Code
	DataByte
	DataWord
	Address
	PetsciiText
	ScreencodeText
	LoHiAddress
	HiLoAddress
	LoHiWord
	HiLoWord
	ExternalFile
)

var blockTypeNames = map[BlockType]string{
	Undefined:      "undefined",
	Code:           "code",
	DataByte:       "byte",
	DataWord:       "word",
	Address:        "address",
	PetsciiText:    "petscii",
	ScreencodeText: "screencode",
	LoHiAddress:    "lohi_address",
	HiLoAddress:    "hilo_address",
	LoHiWord:       "lohi_word",
	HiLoWord:       "hilo_word",
	ExternalFile:   "external_file",
}

// String returns the name of the block type as used in project files and scripts.
func (t BlockType) String() string {
	name, ok := blockTypeNames[t]
	if !ok {
		return fmt.Sprintf("blocktype(%d)", t)
	}
	return name
}

// ParseBlockType returns the block type for a name.
func ParseBlockType(name string) (BlockType, error) {
	for typ, s := range blockTypeNames {
		if s == name {
			return typ, nil
		}
	}
	return Undefined, fmt.Errorf("%w '%s'", ErrUnknownBlockType, name)
}

// IsPaired returns whether the type splits its bytes into a low and a high byte table.
// Regions of paired types need an even length.
func (t BlockType) IsPaired() bool {
	switch t {
	case LoHiAddress, HiLoAddress, LoHiWord, HiLoWord:
		return true
	default:
		return false
	}
}

// IsData returns whether the type is a data type that can contain references to addresses.
func (t BlockType) IsData() bool {
	return t != Code && t != Undefined
}
