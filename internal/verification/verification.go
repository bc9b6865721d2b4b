// Package verification verifies that the generated output file recreates the input.
package verification

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/assembler/acme"
	"github.com/retroenv/retroworkbench/internal/assembler/ca65"
	"github.com/retroenv/retroworkbench/internal/assembler/kickasm"
	"github.com/retroenv/retroworkbench/internal/assembler/tass64"
	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// loadAddressSize is the size of the load address that KickAssembler writes.
const loadAddressSize = 2

var ErrMismatch = errors.New("reassembled output differs from the input")

// Options of a verification.
type Options struct {
	Assembler string
	AsmFile   string
	Illegal   bool
	Debug     bool // keep the assembled file as debug.bin
}

// VerifySource reassembles the source in process and compares the result
// with the program. Binary includes are read from the directory of the
// source file.
func VerifySource(logger *log.Logger, source string, dialect *assembler.Dialect, opts Options,
	prg *program.Program) error {

	dir := filepath.Dir(opts.AsmFile)
	readFile := func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}

	img, err := NewParser(dialect, opts.Illegal, readFile).Parse(source)
	if err != nil {
		return fmt.Errorf("reassembling source: %w", err)
	}
	if img.Origin != prg.Origin() {
		return fmt.Errorf("%w: origin $%04x, expected $%04x", ErrMismatch, img.Origin, prg.Origin())
	}
	if err := checkBufferEqual(logger, prg.Data(), img.Data); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	return nil
}

// VerifyOutput verifies that the output file assembled by the external
// assembler recreates the exact program bytes.
func VerifyOutput(ctx context.Context, logger *log.Logger, opts Options, prg *program.Program) error {
	if opts.AsmFile == "" || opts.AsmFile == "-" {
		return errors.New("can not verify console output")
	}

	var (
		err        error
		outputFile *os.File
	)

	if opts.Debug {
		outputFile, err = os.Create("debug.bin")
		if err != nil {
			return fmt.Errorf("creating file 'debug.bin': %w", err)
		}
		defer func() {
			_ = outputFile.Close()
		}()
	} else {
		outputFile, err = os.CreateTemp("", "verify.*.bin")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		defer func() {
			_ = outputFile.Close()
			_ = os.Remove(outputFile.Name())
		}()
	}

	if err := assembleFile(ctx, opts, prg, outputFile.Name()); err != nil {
		return err
	}

	destination, err := os.ReadFile(outputFile.Name())
	if err != nil {
		return fmt.Errorf("reading destination file for comparison: %w", err)
	}
	if opts.Assembler == options.Kickasm {
		if len(destination) < loadAddressSize {
			return fmt.Errorf("%w: output is missing the load address", ErrMismatch)
		}
		destination = destination[loadAddressSize:]
	}

	if err := checkBufferEqual(logger, prg.Data(), destination); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	return nil
}

func assembleFile(ctx context.Context, opts Options, prg *program.Program, outputFile string) error {
	switch opts.Assembler {
	case options.Tass64:
		if err := tass64.AssembleUsingExternalApp(ctx, opts.AsmFile, outputFile); err != nil {
			return fmt.Errorf("reassembling file using 64tass failed: %w", err)
		}

	case options.Acme:
		if err := acme.AssembleUsingExternalApp(ctx, opts.AsmFile, outputFile); err != nil {
			return fmt.Errorf("reassembling file using acme failed: %w", err)
		}

	case options.Ca65:
		objectFile, err := os.CreateTemp("", "verify.*.o")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		defer func() {
			_ = objectFile.Close()
			_ = os.Remove(objectFile.Name())
		}()

		conf := ca65.Config{
			Origin: prg.Origin(),
			Size:   prg.Len(),
		}
		if err = ca65.AssembleUsingExternalApp(ctx, opts.AsmFile, objectFile.Name(), outputFile, conf); err != nil {
			return fmt.Errorf("reassembling file using ca65 failed: %w", err)
		}

	case options.Kickasm:
		if err := kickasm.AssembleUsingExternalApp(ctx, opts.AsmFile, outputFile); err != nil {
			return fmt.Errorf("reassembling file using kickasm failed: %w", err)
		}

	default:
		return fmt.Errorf("unsupported assembler '%s'", opts.Assembler)
	}

	return nil
}

func checkBufferEqual(logger *log.Logger, input, output []byte) error {
	if len(input) != len(output) {
		return fmt.Errorf("mismatched lengths, %d != %d", len(input), len(output))
	}

	var diffs uint64
	for i := range input {
		if input[i] == output[i] {
			continue
		}

		diffs++
		if diffs < 10 {
			logger.Error("Offset mismatch",
				log.Hex("offset", i),
				log.Hex("expected", input[i]),
				log.Hex("got", output[i]))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d offset mismatches", diffs)
}
