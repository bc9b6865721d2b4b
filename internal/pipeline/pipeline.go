// Package pipeline orchestrates the processing workflow stages of a file.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retroworkbench/internal/app"
	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/detector"
	"github.com/retroenv/retroworkbench/internal/loader"
	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retroworkbench/internal/project"
	"github.com/retroenv/retroworkbench/internal/script"
	"github.com/retroenv/retroworkbench/internal/session"
	"github.com/retroenv/retroworkbench/internal/verification"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the complete workflow of opening, editing and
// exporting a file.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
	stdout   io.Writer
}

// New creates a new processing pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(logger),
		stdout:   os.Stdout,
	}
}

// Execute runs the complete pipeline for the input file of the options.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program) (*session.Session, error) {
	s, err := p.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := p.Process(ctx, s, opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads the input file into a new session. Project files restore the
// saved session state, all other formats are analyzed after loading. In
// headless mode only project files are accepted.
func (p *Pipeline) Open(opts options.Program) (*session.Session, error) {
	format := p.detector.Detect(opts.Input)
	if opts.Headless && format != detector.Project {
		return nil, fmt.Errorf("headless mode only accepts project files, got %s file %s", format, opts.Input)
	}

	var s *session.Session
	if format == detector.Project {
		proj, err := project.LoadFile(opts.Input)
		if err != nil {
			return nil, fmt.Errorf("loading project: %w", err)
		}
		s, err = session.FromProject(p.logger, proj)
		if err != nil {
			return nil, fmt.Errorf("opening project: %w", err)
		}
		if !opts.Quiet {
			p.logger.Info("Opened project",
				log.String("file", opts.Input),
				log.Hex("origin", proj.Program.Origin()),
				log.Int("size", proj.Program.Len()),
				log.String("assembler", s.Settings().Assembler))
		}
	} else {
		res, err := p.loader.Load(opts, format)
		if err != nil {
			return nil, fmt.Errorf("loading file: %w", err)
		}
		app.PrintInfo(p.logger, opts, res)

		prg, err := program.New(res.Image.Origin, res.Image.Data)
		if err != nil {
			return nil, fmt.Errorf("creating program: %w", err)
		}
		prg.EntryHint = res.Image.EntryHint
		prg.HasEntryHint = res.Image.HasEntryHint

		s, err = session.New(p.logger, prg, opts.Settings())
		if err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
		if err := s.Analyze(); err != nil {
			return nil, fmt.Errorf("analyzing program: %w", err)
		}
	}

	s.SetExternalBaseName(externalBaseName(opts))
	return s, nil
}

// Process applies the label import and the script to the session and writes
// all requested output files.
func (p *Pipeline) Process(ctx context.Context, s *session.Session, opts options.Program) error {
	if opts.ImportLabels != "" {
		if err := p.importLabels(s, opts.ImportLabels); err != nil {
			return err
		}
	}

	if opts.Script != "" {
		if err := script.RunFile(ctx, p.logger, s, opts.Script); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var source string
	if opts.ExportAsm != "" {
		var err error
		source, err = p.exportAsm(s, opts.ExportAsm)
		if err != nil {
			return err
		}
	}

	if opts.ExportLabels != "" {
		if err := writeFile(opts.ExportLabels, s.ExportLabels); err != nil {
			return fmt.Errorf("exporting labels: %w", err)
		}
	}

	if opts.Save != "" {
		if err := project.SaveFile(opts.Save, s.Project()); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
	}

	if opts.Verify {
		if err := p.verify(ctx, s, opts, source); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) importLabels(s *session.Session, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening label file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	entries, err := project.ParseLabels(file)
	if err != nil {
		return fmt.Errorf("parsing label file %s: %w", path, err)
	}
	if err := s.ImportLabels(entries); err != nil {
		return err
	}
	p.logger.Debug("Imported labels", log.String("file", path), log.Int("labels", len(entries)))
	return nil
}

// exportAsm writes the assembly source and the external files it includes.
func (p *Pipeline) exportAsm(s *session.Session, path string) (string, error) {
	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		return "", err
	}

	dir := "."
	if path == "-" {
		if _, err := p.stdout.Write(buf.Bytes()); err != nil {
			return "", fmt.Errorf("writing source: %w", err)
		}
	} else {
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("writing source file %s: %w", path, err)
		}
		dir = filepath.Dir(path)
	}

	for _, file := range s.ExternalFiles() {
		name := filepath.Join(dir, file.Name)
		if err := os.WriteFile(name, file.Data, 0o644); err != nil {
			return "", fmt.Errorf("writing external file %s: %w", name, err)
		}
	}
	return buf.String(), nil
}

// verify reassembles the exported source with the built in parser and, if
// it is installed, with the external assembler.
func (p *Pipeline) verify(ctx context.Context, s *session.Session, opts options.Program, source string) error {
	settings := s.Settings()
	vopts := verification.Options{
		Assembler: settings.Assembler,
		AsmFile:   opts.ExportAsm,
		Illegal:   settings.IllegalOpcodes,
		Debug:     opts.Debug,
	}

	if err := verification.VerifySource(p.logger, source, s.Dialect(), vopts, s.Program()); err != nil {
		return err
	}
	if opts.ExportAsm == "-" {
		p.logger.Info("Verification successful")
		return nil
	}

	err := verification.VerifyOutput(ctx, p.logger, vopts, s.Program())
	switch {
	case errors.Is(err, assembler.ErrNotInstalled):
		p.logger.Warn("Skipping verification using external assembler", log.Err(err))
	case err != nil:
		return err
	}
	p.logger.Info("Verification successful")
	return nil
}

// externalBaseName returns the base name of external binary files.
func externalBaseName(opts options.Program) string {
	path := opts.ExportAsm
	if path == "" || path == "-" {
		path = opts.Input
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeFile(path string, write func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}
