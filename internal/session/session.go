// Package session implements the owner of a loaded program. All mutations
// go through the command stack, after every mutation the analysis result and
// the listing are rebuilt.
package session

import (
	"fmt"
	"io"

	"github.com/retroenv/retroworkbench/internal/analyzer"
	"github.com/retroenv/retroworkbench/internal/app"
	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/command"
	"github.com/retroenv/retroworkbench/internal/disasm"
	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/platform"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retroworkbench/internal/project"
	"github.com/retroenv/retroworkbench/internal/writer"
	"github.com/retroenv/retrogolib/log"
)

// Session owns a program together with its undo history and derived views.
type Session struct {
	logger *log.Logger

	prg       *program.Program
	settings  options.Settings
	stack     *command.Stack
	analyzer  *analyzer.Analyzer
	formatter *assembler.Formatter

	result  *analyzer.Result
	listing *disasm.Listing
	cursor  project.Cursor

	externalBaseName string
}

// New creates a session for the program.
func New(logger *log.Logger, prg *program.Program, settings options.Settings) (*Session, error) {
	s := &Session{
		logger: logger,
		prg:    prg,
		stack:  command.NewStack(prg),
	}
	if err := s.configure(settings); err != nil {
		return nil, err
	}
	s.refresh()
	return s, nil
}

// FromProject creates a session for a loaded project file.
func FromProject(logger *log.Logger, p *project.Project) (*Session, error) {
	s, err := New(logger, p.Program, p.Settings)
	if err != nil {
		return nil, err
	}
	s.cursor = p.Cursor
	return s, nil
}

func (s *Session) configure(settings options.Settings) error {
	settings.Normalize()
	dialect, err := app.Dialect(settings.Assembler)
	if err != nil {
		return err
	}
	plat, err := platform.Get(settings.Platform)
	if err != nil {
		return err
	}

	s.settings = settings
	s.formatter = assembler.New(dialect)
	s.analyzer = analyzer.New(s.logger, analyzer.Options{
		IllegalOpcodes: settings.IllegalOpcodes,
		BrkSingleByte:  settings.BrkSingleByte,
		PatchBrk:       settings.PatchBrk,
		Platform:       plat,
	})

	for _, sym := range plat.ApplySymbols(s.prg) {
		s.logger.Debug("Skipping platform symbol with conflicting name",
			log.String("name", sym.Name),
			log.Hex("address", sym.Address))
	}
	return nil
}

// refresh regenerates the auto labels, cross references and the listing.
func (s *Session) refresh() {
	s.result = s.analyzer.Refresh(s.prg)
	s.listing = s.disassembler(false).Disassemble(s.prg, s.result)
}

func (s *Session) disassembler(expandCollapsed bool) *disasm.Disasm {
	opts := disasm.Options{
		Analyzer:         s.analyzer.Options(),
		BytesPerLine:     s.settings.BytesPerLine,
		AddressesPerLine: s.settings.AddressesPerLine,
		TextCharLimit:    s.settings.TextCharLimit,
		MaxXrefCount:     s.settings.MaxXrefCount,
		ExternalBaseName: s.externalBaseName,
		ExpandCollapsed:  expandCollapsed,
	}
	return disasm.New(s.logger, s.formatter, opts)
}

// Program returns the owned program. Callers must not mutate it directly.
func (s *Session) Program() *program.Program {
	return s.prg
}

// Settings returns the document settings.
func (s *Session) Settings() options.Settings {
	return s.settings
}

// SetSettings changes the document settings and rebuilds the listing.
func (s *Session) SetSettings(settings options.Settings) error {
	if err := s.configure(settings); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// SetExternalBaseName sets the base of the file names of external file blocks.
func (s *Session) SetExternalBaseName(name string) {
	s.externalBaseName = name
	s.refresh()
}

// Listing returns the current listing.
func (s *Session) Listing() *disasm.Listing {
	return s.listing
}

// Result returns the current analysis result.
func (s *Session) Result() *analyzer.Result {
	return s.result
}

// Cursor returns the view position.
func (s *Session) Cursor() project.Cursor {
	return s.cursor
}

// SetCursor sets the view position.
func (s *Session) SetCursor(cursor project.Cursor) {
	s.cursor = cursor
}

// GoTo moves the cursor to the line containing the address.
func (s *Session) GoTo(address uint16) bool {
	index, ok := s.listing.LineIndexContainingAddress(address)
	if !ok {
		return false
	}
	s.cursor = project.Cursor{Address: s.listing.Lines[index].Address}
	return true
}

// Execute applies the command and records it in the undo history.
func (s *Session) Execute(cmd command.Command) error {
	if err := s.stack.Push(cmd); err != nil {
		return err
	}
	s.logger.Debug("Executed command", log.String("command", cmd.Description()))
	s.refresh()
	return nil
}

// Undo reverts the last command.
func (s *Session) Undo() (command.Command, error) {
	cmd, err := s.stack.Undo()
	if err != nil {
		return nil, err
	}
	s.refresh()
	return cmd, nil
}

// Redo applies the last reverted command again.
func (s *Session) Redo() (command.Command, error) {
	cmd, err := s.stack.Redo()
	if err != nil {
		return nil, err
	}
	s.refresh()
	return cmd, nil
}

// AnalysisCommand returns the command that classifies all code reachable from
// the entry points. The command is not applied.
func (s *Session) AnalysisCommand() *command.Batch {
	regions := s.analyzer.Reachable(s.prg)
	commands := make([]command.Command, 0, len(regions))
	for _, r := range regions {
		commands = append(commands, &command.SetBlockTypeRegion{
			Type:  program.Code,
			Start: r.Start,
			End:   r.End,
		})
	}
	return command.NewBatch("analysis", commands...)
}

// Analyze classifies all reachable code as one undoable step.
func (s *Session) Analyze() error {
	batch := s.AnalysisCommand()
	if len(batch.Commands) == 0 {
		s.logger.Debug("Analysis found no new code")
		return nil
	}
	s.logger.Debug("Analysis found code regions", log.Int("regions", len(batch.Commands)))
	return s.Execute(batch)
}

// ImportLabels sets user labels for all entries of a label file as one
// undoable step. Entries that match an existing label are skipped.
func (s *Session) ImportLabels(entries []project.LabelEntry) error {
	var commands []command.Command
	for _, entry := range entries {
		if address, ok := s.prg.LabelAddress(entry.Name); ok && address == entry.Address {
			continue
		}
		commands = append(commands, &command.SetLabel{
			Address: entry.Address,
			Name:    entry.Name,
			Type:    program.UserDefined,
		})
	}
	if len(commands) == 0 {
		return nil
	}
	if err := s.Execute(command.NewBatch("import labels", commands...)); err != nil {
		return fmt.Errorf("importing labels: %w", err)
	}
	return nil
}

// Export writes the program as assembly source. Collapsed ranges are expanded.
func (s *Session) Export(w io.Writer) error {
	listing := s.disassembler(true).Disassemble(s.prg, s.result)
	wr := writer.New(s.prg, s.formatter, w, writer.Options{
		IllegalOpcodes: s.settings.IllegalOpcodes,
	})
	if err := wr.Write(listing, s.result.Xrefs); err != nil {
		return fmt.Errorf("exporting source: %w", err)
	}
	return nil
}

// ExternalFiles returns the files that the exported source includes.
func (s *Session) ExternalFiles() []writer.ExternalFile {
	return writer.ExternalFiles(s.prg, s.disassembler(true))
}

// Dialect returns the dialect of the exported source.
func (s *Session) Dialect() *assembler.Dialect {
	return s.formatter.Dialect()
}

// ExportLabels writes all labels as VICE label file.
func (s *Session) ExportLabels(w io.Writer) error {
	return project.WriteLabels(w, s.prg)
}

// Project returns the project of the session for saving.
func (s *Session) Project() *project.Project {
	return &project.Project{
		Program:  s.prg,
		Settings: s.settings,
		Cursor:   s.cursor,
	}
}
