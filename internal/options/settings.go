package options

import "strings"

// Supported assembler dialect names.
const (
	Tass64  = "64tass"
	Acme    = "acme"
	Ca65    = "ca65"
	Kickasm = "kickasm"
)

// Assemblers lists all supported assembler dialects.
var Assemblers = []string{Tass64, Acme, Ca65, Kickasm}

// Settings are the document settings that are stored in the project file.
type Settings struct {
	Assembler string `json:"assembler"`
	Platform  string `json:"platform"`

	IllegalOpcodes bool `json:"illegal_opcodes"`
	BrkSingleByte  bool `json:"brk_single_byte"`
	PatchBrk       bool `json:"patch_brk"`

	BytesPerLine     int `json:"bytes_per_line"`
	AddressesPerLine int `json:"addresses_per_line"`
	TextCharLimit    int `json:"text_char_limit"`
	MaxXrefCount     int `json:"max_xref_count"`
}

// NewSettings returns the default settings.
func NewSettings() Settings {
	return Settings{
		Assembler:        Tass64,
		Platform:         "c64",
		BrkSingleByte:    true,
		BytesPerLine:     8,
		AddressesPerLine: 5,
		TextCharLimit:    32,
		MaxXrefCount:     5,
	}
}

// Normalize replaces unset values by their defaults.
func (s *Settings) Normalize() {
	def := NewSettings()
	s.Assembler = strings.ToLower(s.Assembler)
	if s.Assembler == "" {
		s.Assembler = def.Assembler
	}
	s.Platform = strings.ToLower(s.Platform)
	if s.Platform == "" {
		s.Platform = def.Platform
	}
	if s.BytesPerLine <= 0 {
		s.BytesPerLine = def.BytesPerLine
	}
	if s.AddressesPerLine <= 0 {
		s.AddressesPerLine = def.AddressesPerLine
	}
	if s.TextCharLimit <= 0 {
		s.TextCharLimit = def.TextCharLimit
	}
	if s.MaxXrefCount < 0 {
		s.MaxXrefCount = def.MaxXrefCount
	}
}

// Settings returns the document settings for a new document based on the
// command line flags.
func (p Program) Settings() Settings {
	s := NewSettings()
	if p.Assembler != "" {
		s.Assembler = p.Assembler
	}
	if p.Platform != "" {
		s.Platform = p.Platform
	}
	s.IllegalOpcodes = p.Illegal
	s.Normalize()
	return s
}
