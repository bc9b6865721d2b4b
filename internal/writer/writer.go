// Package writer implements the assembly source export of a disassembly listing.
package writer

import (
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/retroenv/retroworkbench/internal/analyzer"
	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/disasm"
	"github.com/retroenv/retroworkbench/internal/program"
)

const (
	dataBytesPerLine = 16
	labelColumn      = 16
	codeColumn       = 30
)

// Options of the writer.
type Options struct {
	IllegalOpcodes bool
	OffsetComments bool // prefix comments of data lines with their address
}

// Writer writes a listing as assembly source.
type Writer struct {
	prg       *program.Program
	formatter *assembler.Formatter
	options   Options
	writer    io.Writer
}

// New creates a new writer.
func New(prg *program.Program, formatter *assembler.Formatter, writer io.Writer, options Options) *Writer {
	return &Writer{
		prg:       prg,
		formatter: formatter,
		options:   options,
		writer:    writer,
	}
}

// Write writes the header, the constants for referenced labels outside of the
// image and all lines of the listing. The listing has to be generated with
// collapsed ranges expanded.
func (w *Writer) Write(listing *disasm.Listing, xrefs *analyzer.CrossReferences) error {
	if err := w.WriteCommentHeader(); err != nil {
		return err
	}

	lines := []string{w.formatter.FormatOrigin(w.prg.Origin())}
	lines = append(lines, w.formatter.HeaderLines(w.options.IllegalOpcodes)...)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w.writer, line); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := w.OutputConstants(w.constants(xrefs)); err != nil {
		return err
	}

	for i := range listing.Lines {
		if err := w.writeLine(i, &listing.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommentHeader writes the CRC32 checksum, the size and the origin of the
// image as comments.
func (w *Writer) WriteCommentHeader() error {
	comments := []string{
		fmt.Sprintf("CRC32 checksum: %08x", crc32.ChecksumIEEE(w.prg.Data())),
		fmt.Sprintf("Size: %d bytes", w.prg.Len()),
		fmt.Sprintf("Origin: $%04x", w.prg.Origin()),
	}
	for _, comment := range comments {
		if _, err := fmt.Fprintln(w.writer, w.formatter.FormatComment(comment)); err != nil {
			return fmt.Errorf("writing comment header: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

// constant is a label outside of the image.
type constant struct {
	name    string
	address uint16
}

// constants returns the primary labels of all referenced addresses outside of
// the image in address order.
func (w *Writer) constants(xrefs *analyzer.CrossReferences) []constant {
	if xrefs == nil {
		return nil
	}
	var result []constant
	for _, address := range xrefs.Targets() {
		if w.prg.Contains(address) {
			continue
		}
		if l, ok := w.prg.PrimaryLabel(address); ok {
			result = append(result, constant{name: l.Name, address: address})
		}
	}
	return result
}

// OutputConstants outputs the definitions of labels outside of the image.
func (w *Writer) OutputConstants(constants []constant) error {
	if len(constants) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	for _, c := range constants {
		if _, err := fmt.Fprintln(w.writer, w.formatter.FormatConstant(c.name, c.address)); err != nil {
			return fmt.Errorf("writing constant: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeLine(index int, line *disasm.Line) error {
	// print an empty line before labels and line comments
	if index > 0 && (line.Label != "" || line.LineComment != "") {
		if _, err := fmt.Fprintln(w.writer); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}

	if line.LineComment != "" {
		for _, text := range strings.Split(line.LineComment, "\n") {
			if _, err := fmt.Fprintln(w.writer, w.formatter.FormatComment(text)); err != nil {
				return fmt.Errorf("writing line comment: %w", err)
			}
		}
	}
	for _, l := range line.OffsetLabels {
		if _, err := fmt.Fprintln(w.writer, w.formatter.FormatOffsetLabel(l.Name, l.Offset)); err != nil {
			return fmt.Errorf("writing offset label: %w", err)
		}
	}

	prefix := strings.Repeat(" ", labelColumn)
	if line.Label != "" {
		definition := w.formatter.FormatLabelDefinition(line.Label)
		if len(definition) < labelColumn {
			prefix = fmt.Sprintf("%-*s", labelColumn, definition)
		} else if _, err := fmt.Fprintln(w.writer, definition); err != nil {
			return fmt.Errorf("writing label: %w", err)
		}
	}

	if line.Kind == disasm.CollapsedLine {
		return w.BundleDataWrites(line.Bytes, prefix)
	}

	code := line.Mnemonic
	if line.Operand != "" {
		code += " " + line.Operand
	}
	return w.writeCodeLine(prefix, code, w.comment(line))
}

// comment returns the combined side and generated comment of a line.
func (w *Writer) comment(line *disasm.Line) string {
	var parts []string
	if w.options.OffsetComments && line.Kind == disasm.DataLine && len(line.Bytes) > 0 {
		parts = append(parts, fmt.Sprintf("$%04x", line.Address))
	}
	if line.SideComment != "" {
		parts = append(parts, line.SideComment)
	}
	if line.Comment != "" {
		parts = append(parts, line.Comment)
	}
	return strings.Join(parts, "  ")
}

// writeCodeLine writes the code with its comment. Every further line of a
// multi line comment is aligned in the comment column.
func (w *Writer) writeCodeLine(prefix, code, comment string) error {
	if comment == "" {
		if _, err := fmt.Fprintf(w.writer, "%s%s\n", prefix, code); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
		return nil
	}

	for i, text := range strings.Split(comment, "\n") {
		if i > 0 {
			prefix = strings.Repeat(" ", labelColumn)
			code = ""
		}
		if _, err := fmt.Fprintf(w.writer, "%s%-*s %s\n", prefix, codeColumn, code, w.formatter.FormatComment(text)); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	return nil
}

// BundleDataWrites writes data bytes with dataBytesPerLine bytes per line.
func (w *Writer) BundleDataWrites(data []byte, prefix string) error {
	for i := 0; i < len(data); i += dataBytesPerLine {
		end := min(i+dataBytesPerLine, len(data))
		s := w.formatter.FormatByteLine(data[i:end])
		if err := w.writeCodeLine(prefix, s.Directive+" "+s.Operand, ""); err != nil {
			return fmt.Errorf("writing data: %w", err)
		}
		prefix = strings.Repeat(" ", labelColumn)
	}
	return nil
}

// ExternalFile is the content of an external file block.
type ExternalFile struct {
	Name string
	Data []byte
}

// ExternalFiles returns the files that the external file blocks of the
// program include.
func ExternalFiles(prg *program.Program, dis *disasm.Disasm) []ExternalFile {
	var files []ExternalFile
	for _, item := range prg.BlocksView() {
		if item.Kind != program.BlockRun || item.Type != program.ExternalFile {
			continue
		}
		files = append(files, ExternalFile{
			Name: dis.ExternalFileName(item.Start),
			Data: prg.Bytes(item.Start, int(item.End-item.Start)+1),
		})
	}
	return files
}
