package m6502

import "github.com/retroenv/retrogolib/arch/cpu/cpu6502"

// complementaryBranches defines pairs of branch instructions that test opposite conditions of the same flag.
// If both instructions in a pair appear consecutively, they create an unconditional branch pattern.
var complementaryBranches = map[string]string{
	cpu6502.BeqName: cpu6502.BneName, // Zero flag: equal vs not equal
	cpu6502.BneName: cpu6502.BeqName,
	cpu6502.BccName: cpu6502.BcsName, // Carry flag: clear vs set
	cpu6502.BcsName: cpu6502.BccName,
	cpu6502.BplName: cpu6502.BmiName, // Negative flag: plus vs minus
	cpu6502.BmiName: cpu6502.BplName,
	cpu6502.BvcName: cpu6502.BvsName, // Overflow flag: clear vs set
	cpu6502.BvsName: cpu6502.BvcName,
}

// IsComplementaryBranchPair returns whether the second instruction is the complementary
// branch of the first one. Execution never falls through the second branch in that case.
func IsComplementaryBranchPair(first, second *Opcode) bool {
	if first == nil || second == nil || first.Category != Branch || second.Category != Branch {
		return false
	}
	complementary, ok := complementaryBranches[first.Mnemonic]
	return ok && complementary == second.Mnemonic
}
