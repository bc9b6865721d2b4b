package ca65

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	asm "github.com/retroenv/retroworkbench/internal/assembler"
)

const (
	assemblerName = "ca65"
	linkerName    = "ld65"
)

// Config holds the image building configuration.
type Config struct {
	Origin uint16
	Size   int
}

// AssembleUsingExternalApp calls the external assembler and linker to generate
// a plain binary from the given asm file.
func AssembleUsingExternalApp(ctx context.Context, asmFile, objectFile, outputFile string, conf Config) error {
	assembler := assemblerName
	linker := linkerName
	if runtime.GOOS == "windows" {
		assembler += ".exe"
		linker += ".exe"
	}

	if _, err := exec.LookPath(assembler); err != nil {
		return fmt.Errorf("%w: %s", asm.ErrNotInstalled, assembler)
	}
	if _, err := exec.LookPath(linker); err != nil {
		return fmt.Errorf("%w: %s", asm.ErrNotInstalled, linker)
	}

	cmd := exec.CommandContext(ctx, assembler, asmFile, "-o", objectFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembling file: %s: %w", strings.TrimSpace(string(out)), err)
	}

	configFile, err := os.CreateTemp("", "image.*.cfg")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		_ = configFile.Close()
		_ = os.Remove(configFile.Name())
	}()

	linkerConfig, err := GenerateLinkerConfig(conf.Origin, conf.Size)
	if err != nil {
		return fmt.Errorf("generating ld65 config: %w", err)
	}
	if err := os.WriteFile(configFile.Name(), []byte(linkerConfig), 0o600); err != nil {
		return fmt.Errorf("writing linker config: %w", err)
	}

	cmd = exec.CommandContext(ctx, linker, "-C", configFile.Name(), "-o", outputFile, objectFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("linking file: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
