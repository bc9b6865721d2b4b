package platform

import "github.com/retroenv/retroworkbench/internal/program"

func routine(address uint16, name string) Symbol {
	return Symbol{Address: address, Name: name, Type: program.Subroutine}
}

func register(address uint16, name string) Symbol {
	return Symbol{Address: address, Name: name, Type: program.Field}
}

func vector(address uint16, name string) Symbol {
	return Symbol{Address: address, Name: name, Type: program.Pointer}
}

// kernalJumpTable is shared by all CBM machines with a KERNAL.
var kernalJumpTable = []Symbol{
	routine(0xFFB7, "READST"),
	routine(0xFFBA, "SETLFS"),
	routine(0xFFBD, "SETNAM"),
	routine(0xFFC0, "OPEN"),
	routine(0xFFC3, "CLOSE"),
	routine(0xFFC6, "CHKIN"),
	routine(0xFFC9, "CHKOUT"),
	routine(0xFFCC, "CLRCHN"),
	routine(0xFFCF, "CHRIN"),
	routine(0xFFD2, "CHROUT"),
	routine(0xFFD5, "LOAD"),
	routine(0xFFD8, "SAVE"),
	routine(0xFFDB, "SETTIM"),
	routine(0xFFDE, "RDTIM"),
	routine(0xFFE1, "STOP"),
	routine(0xFFE4, "GETIN"),
	routine(0xFFE7, "CLALL"),
	routine(0xFFEA, "UDTIM"),
}

var c64 = &Platform{
	Name:       "c64",
	BasicStart: 0x0801,
	Cartridge: &Cartridge{
		SignatureAddress: 0x8004,
		Signature:        []byte{0xC3, 0xC2, 0xCD, 0x38, 0x30}, // CBM80
		ColdStart:        0x8000,
		WarmStart:        0x8002,
	},
	Symbols: append([]Symbol{
		vector(0x0314, "CINV"),
		vector(0x0316, "CBINV"),
		vector(0x0318, "NMINV"),

		register(0xD000, "SP0X"),
		register(0xD001, "SP0Y"),
		register(0xD010, "MSIGX"),
		register(0xD011, "SCROLY"),
		register(0xD012, "RASTER"),
		register(0xD015, "SPENA"),
		register(0xD016, "SCROLX"),
		register(0xD018, "VMCSB"),
		register(0xD019, "VICIRQ"),
		register(0xD01A, "IRQMSK"),
		register(0xD020, "EXTCOL"),
		register(0xD021, "BGCOL0"),
		register(0xD400, "FRELO1"),
		register(0xD401, "FREHI1"),
		register(0xD404, "VCREG1"),
		register(0xD418, "SIGVOL"),
		register(0xDC00, "CIAPRA"),
		register(0xDC01, "CIAPRB"),
		register(0xDC0D, "CIAICR"),
		register(0xDD00, "CI2PRA"),
		register(0xDD0D, "CI2ICR"),

		routine(0xFF81, "SCINIT"),
		routine(0xFF84, "IOINIT"),
		routine(0xFF87, "RAMTAS"),
		routine(0xFF8A, "RESTOR"),
		routine(0xFF9F, "SCNKEY"),
		routine(0xFFF0, "PLOT"),
	}, kernalJumpTable...),
}

var vic20 = &Platform{
	Name:       "vic20",
	BasicStart: 0x1001,
	Cartridge: &Cartridge{
		SignatureAddress: 0xA004,
		Signature:        []byte{0x41, 0x30, 0xC3, 0xC2, 0xCD}, // A0CBM
		ColdStart:        0xA000,
		WarmStart:        0xA002,
	},
	Symbols: append([]Symbol{
		vector(0x0314, "CINV"),
		vector(0x0316, "CBINV"),
		vector(0x0318, "NMINV"),

		register(0x9000, "VICCR0"),
		register(0x9001, "VICCR1"),
		register(0x9002, "VICCR2"),
		register(0x9003, "VICCR3"),
		register(0x9004, "VICCR4"),
		register(0x9005, "VICCR5"),
		register(0x900E, "VICCRE"),
		register(0x900F, "VICCRF"),
		register(0x9110, "VIA1PB"),
		register(0x9111, "VIA1PA1"),
		register(0x9120, "VIA2PB"),
		register(0x9121, "VIA2PA1"),

		routine(0xFFF0, "PLOT"),
	}, kernalJumpTable...),
}

var plus4 = &Platform{
	Name:       "plus4",
	BasicStart: 0x1001,
	Symbols: append([]Symbol{
		vector(0x0314, "CINV"),
		vector(0x0316, "CBINV"),

		register(0xFF00, "TED_T1LO"),
		register(0xFF06, "TED_CTRL1"),
		register(0xFF07, "TED_CTRL2"),
		register(0xFF09, "TED_IRQ"),
		register(0xFF0A, "TED_IRQMSK"),
		register(0xFF0B, "TED_RASTER"),
		register(0xFF15, "TED_BGCOL"),
		register(0xFF19, "TED_BORDER"),
		register(0xFF3E, "TED_ROMSEL"),
		register(0xFF3F, "TED_RAMSEL"),

		routine(0xFFF0, "PLOT"),
	}, kernalJumpTable...),
}

var pet = &Platform{
	Name:       "pet",
	BasicStart: 0x0401,
	Symbols: []Symbol{
		vector(0x0090, "CINV"),
		vector(0x0092, "CBINV"),

		register(0xE810, "PIA1PA"),
		register(0xE812, "PIA1PB"),
		register(0xE820, "PIA2PA"),
		register(0xE840, "VIAPB"),
		register(0xE84C, "VIAPCR"),

		routine(0xFFCF, "CHRIN"),
		routine(0xFFD2, "CHROUT"),
		routine(0xFFE4, "GETIN"),
	},
}
