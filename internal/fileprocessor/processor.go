// Package fileprocessor handles file selection and batch processing operations
package fileprocessor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/pipeline"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// ProcessFile runs the processing pipeline for the input file of the options.
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program) error {
	if _, err := pipeline.New(logger).Execute(ctx, opts); err != nil {
		return fmt.Errorf("processing file %s: %w", opts.Input, err)
	}
	return nil
}

// ProcessFiles processes all files concurrently. Every file is processed in
// its own session, a failing file does not stop the processing of the others.
func ProcessFiles(ctx context.Context, logger *log.Logger, opts options.Program, files []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var failed atomic.Int32
	for _, file := range files {
		fileOpts := OptionsForFile(opts, file, len(files) > 1 || opts.Batch != "")

		g.Go(func() error {
			err := ProcessFile(ctx, logger, fileOpts)
			switch {
			case err == nil:
				return nil
			case errors.Is(err, context.Canceled):
				return err
			default:
				failed.Add(1)
				logger.Error("Processing failed", log.String("file", file), log.Err(err))
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(files))
	}
	return nil
}

// GetFilesToProcess returns list of files to process based on options
func GetFilesToProcess(opts *options.Program) ([]string, error) {
	if opts.Batch != "" {
		matches, err := filepath.Glob(opts.Batch)
		if err != nil {
			return nil, fmt.Errorf("globbing batch pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match batch pattern '%s'", opts.Batch)
		}
		return matches, nil
	}
	return []string{opts.Input}, nil
}

// OptionsForFile returns the options to process a single file. In batch mode
// all requested output files are named after the input file.
func OptionsForFile(opts options.Program, file string, batch bool) options.Program {
	opts.Input = file
	if !batch {
		return opts
	}
	if opts.ExportAsm != "" {
		opts.ExportAsm = GenerateOutputFilename(file, ".asm")
	}
	if opts.ExportLabels != "" {
		opts.ExportLabels = GenerateOutputFilename(file, ".lbl")
	}
	if opts.Save != "" {
		opts.Save = GenerateOutputFilename(file, ".rwb")
	}
	return opts
}

// GenerateOutputFilename generates output filename for a given input file
func GenerateOutputFilename(inputFile, extension string) string {
	ext := filepath.Ext(inputFile)
	name := inputFile[:len(inputFile)-len(ext)]
	if ext == extension {
		name += "_out"
	}
	return name + extension
}

// ConsoleOutputRedirected returns whether the assembly source is written to a
// stdout that is not a terminal. Logging is silenced in that case to keep the
// output usable.
func ConsoleOutputRedirected(opts options.Program) bool {
	if opts.ExportAsm != "-" {
		return false
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("retroworkbench", log.String("version", buildinfo.Version(version, commit, date)))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
