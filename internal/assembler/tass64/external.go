package tass64

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/retroenv/retroworkbench/internal/assembler"
)

const assemblerName = "64tass"

// AssembleUsingExternalApp calls the external assembler to generate a plain
// binary without load address from the given asm file.
func AssembleUsingExternalApp(ctx context.Context, asmFile, outputFile string) error {
	if _, err := exec.LookPath(assemblerName); err != nil {
		return fmt.Errorf("%w: %s", assembler.ErrNotInstalled, assemblerName)
	}

	cmd := exec.CommandContext(ctx, assemblerName, "--quiet", "--nostart", "-o", outputFile, asmFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembling file: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
