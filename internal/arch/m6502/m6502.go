// Package m6502 provides the 6502 opcode table and instruction decoder,
// including the undocumented opcodes of the NMOS 6502/6510.
package m6502
