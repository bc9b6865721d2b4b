// Package main implements the main entry point of the 6502 reverse engineering workbench
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retroworkbench/internal/cli"
	"github.com/retroenv/retroworkbench/internal/config"
	"github.com/retroenv/retroworkbench/internal/fileprocessor"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fileprocessor.PrintBanner(logger, opts, version, commit, date)
			if !usageErr.Help {
				fmt.Printf("%s\n\n", usageErr.Error())
			}
			usageErr.ShowUsage()
			if usageErr.Help {
				os.Exit(0)
			}
		} else {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("retroworkbench %s\n", buildinfo.Version(version, commit, date))
		return
	}

	if fileprocessor.ConsoleOutputRedirected(opts) {
		opts.Quiet = true
	}
	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	fileprocessor.PrintBanner(logger, opts, version, commit, date)

	files, err := fileprocessor.GetFilesToProcess(&opts)
	if err != nil {
		logger.Fatal(err.Error())
	}

	if err := fileprocessor.ProcessFiles(ctx, logger, opts, files); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Processing failed", log.Err(err))
		os.Exit(1)
	}
}
