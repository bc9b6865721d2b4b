package kickasm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/retroenv/retroworkbench/internal/assembler"
)

// jarEnvironment names the environment variable with the path of KickAss.jar.
const jarEnvironment = "KICKASS_JAR"

// AssembleUsingExternalApp calls KickAssembler through java to generate a
// binary from the given asm file. The output keeps the load address, callers
// strip the first two bytes.
func AssembleUsingExternalApp(ctx context.Context, asmFile, outputFile string) error {
	jar := os.Getenv(jarEnvironment)
	if jar == "" {
		return fmt.Errorf("%w: set %s to the path of KickAss.jar", assembler.ErrNotInstalled, jarEnvironment)
	}
	if _, err := exec.LookPath("java"); err != nil {
		return fmt.Errorf("%w: java", assembler.ErrNotInstalled)
	}

	cmd := exec.CommandContext(ctx, "java", "-jar", jar, asmFile, "-o", outputFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembling file: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
