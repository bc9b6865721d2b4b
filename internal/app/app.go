// Package app provides the main application helpers of the workbench.
package app

import (
	"fmt"
	"strings"

	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/assembler/acme"
	"github.com/retroenv/retroworkbench/internal/assembler/ca65"
	"github.com/retroenv/retroworkbench/internal/assembler/kickasm"
	"github.com/retroenv/retroworkbench/internal/assembler/tass64"
	"github.com/retroenv/retroworkbench/internal/loader"
	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// PrintInfo prints the information about the input file and the loaded image.
func PrintInfo(logger *log.Logger, opts options.Program, res *loader.Result) {
	if opts.Quiet {
		return
	}

	img := res.Image
	logger.Info("Processing file",
		log.String("file", opts.Input),
		log.Stringer("format", res.Format),
		log.Hex("origin", img.Origin),
		log.Int("size", len(img.Data)),
		log.String("assembler", opts.Assembler),
	)
	if img.Name != "" {
		logger.Info("Extracted entry", log.String("name", img.Name))
	}

	if res.Format.IsArchive() {
		for _, entry := range res.Entries {
			marker := " "
			if entry.Index == res.Entry {
				marker = "*"
			}
			logger.Info(marker + entry.String())
		}
	}
}

// Dialect returns the assembler dialect that generates source compatible to
// the chosen assembler.
func Dialect(assemblerName string) (*assembler.Dialect, error) {
	switch strings.ToLower(assemblerName) {
	case options.Tass64:
		return &tass64.Dialect, nil
	case options.Acme:
		return &acme.Dialect, nil
	case options.Ca65:
		return &ca65.Dialect, nil
	case options.Kickasm:
		return &kickasm.Dialect, nil
	default:
		return nil, fmt.Errorf("unsupported assembler '%s'", assemblerName)
	}
}
