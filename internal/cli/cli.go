// Package cli handles command line interface logic
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/retroenv/retroworkbench/internal/detector"
	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/platform"
)

// ParseFlags parses the command line flags of os.Args and returns the program options.
func ParseFlags() (options.Program, error) {
	return parseArgs(os.Args[0], os.Args[1:], os.Stdout)
}

func parseArgs(name string, arguments []string, output io.Writer) (options.Program, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(arguments)
	if errors.Is(err, flag.ErrHelp) {
		return opts, &UsageError{flags: flags, Help: true}
	}
	if err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	if opts.Version {
		return opts, nil
	}

	args := flags.Args()
	if len(args) == 0 && opts.Batch == "" {
		return opts, &UsageError{flags: flags, msg: "no input file given"}
	}
	if err := validateArgs(flags, args); err != nil {
		return opts, err
	}
	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}

	if opts.Batch == "" {
		opts.Input = args[0]
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	Help bool // usage was requested explicitly

	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	if e.Help {
		return "help requested"
	}
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: retroworkbench [options] <file to open>\n\n")
	if e.flags != nil {
		e.flags.SetOutput(os.Stdout)
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(flags *flag.FlagSet, args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				flags: flags,
				msg:   fmt.Sprintf("Potential argument %s found after file to open, please pass the file to open as last argument", arg),
			}
		}
	}
	if len(args) > 1 {
		return &UsageError{flags: flags, msg: "only one input file can be opened, use -batch for multiple files"}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Assembler = strings.ToLower(opts.Assembler)
	if !slices.Contains(options.Assemblers, opts.Assembler) {
		return fmt.Errorf("unsupported assembler: %s. Valid options: %s",
			opts.Assembler, strings.Join(options.Assemblers, ", "))
	}

	opts.Platform = strings.ToLower(opts.Platform)
	if _, err := platform.Get(opts.Platform); err != nil {
		return err
	}

	if _, err := opts.RawOrigin(); err != nil {
		return fmt.Errorf("invalid origin: %w", err)
	}

	if opts.Batch != "" && opts.ExportAsm == "-" {
		return errors.New("batch mode can not export to the console")
	}
	if opts.Verify && opts.ExportAsm == "" {
		return errors.New("verification requires an exported assembly file, use -export_asm")
	}
	if opts.Headless && opts.Input != "" && !detector.IsProject(opts.Input) {
		return fmt.Errorf("headless mode only accepts project files: %s", opts.Input)
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.BoolVar(&opts.Version, "version", false, "print the version and exit")
	flags.StringVar(&opts.ImportLabels, "import_lbl", "", "name of a VICE label file to import")
	flags.StringVar(&opts.ExportLabels, "export_lbl", "", "name of the VICE label file to write")
	flags.StringVar(&opts.ExportAsm, "export_asm", "", "name of the .asm file to write, - prints it on the console")
	flags.BoolVar(&opts.Headless, "headless", false, "run without user interface, only project files are accepted")
	flags.StringVar(&opts.Assembler, "a", options.Tass64, "assembler compatibility of the generated .asm file ("+strings.Join(options.Assemblers, "/")+")")
	flags.StringVar(&opts.Platform, "platform", "c64", "platform of the program ("+strings.Join(platform.Names(), "/")+")")
	flags.StringVar(&opts.Origin, "origin", "", "load address of raw binary files, for example $c000")
	flags.IntVar(&opts.Entry, "entry", -1, "index of the directory entry to extract from T64, TAP and D64 files")
	flags.BoolVar(&opts.Illegal, "illegal", false, "decode illegal opcodes")
	flags.StringVar(&opts.Save, "save", "", "name of the project file to write after processing")
	flags.StringVar(&opts.Script, "script", "", "name of a Lua script to run before exporting")
	flags.BoolVar(&opts.Verify, "verify", false, "verify the generated output by assembling it and check if it matches the input")
	flags.StringVar(&opts.Batch, "batch", "", "process a batch of files given by a path and file mask, for example *.prg")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
