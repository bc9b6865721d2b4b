package project

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retroenv/retroworkbench/internal/program"
)

// ErrInvalidLabelLine is returned for unparsable label file lines.
var ErrInvalidLabelLine = errors.New("invalid label file line")

// LabelEntry is a label of a label file.
type LabelEntry struct {
	Address uint16
	Name    string
}

// ParseLabels parses a VICE monitor label file. Supported lines are
// "add_label $0801 .name" and "al C:0801 .name", everything after a
// semicolon is a comment.
func ParseLabels(r io.Reader) ([]LabelEntry, error) {
	var entries []LabelEntry
	scanner := bufio.NewScanner(r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := scanner.Text()
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		entry, err := parseLabelLine(fields)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrInvalidLabelLine, lineNumber, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading label file: %w", err)
	}
	return entries, nil
}

func parseLabelLine(fields []string) (LabelEntry, error) {
	command := strings.ToLower(fields[0])
	if command != "add_label" && command != "al" {
		return LabelEntry{}, fmt.Errorf("unsupported command '%s'", fields[0])
	}
	if len(fields) != 3 {
		return LabelEntry{}, fmt.Errorf("expected address and name, got %d fields", len(fields)-1)
	}

	s := fields[1]
	switch {
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	case len(s) > 2 && strings.EqualFold(s[:2], "c:"):
		s = s[2:]
	}
	address, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return LabelEntry{}, fmt.Errorf("invalid address '%s': %w", fields[1], err)
	}

	name := strings.TrimPrefix(fields[2], ".")
	if err := program.ValidateLabelName(name); err != nil {
		return LabelEntry{}, err
	}
	return LabelEntry{Address: uint16(address), Name: name}, nil
}

// WriteLabels writes all labels of the program in address order as VICE
// monitor label file.
func WriteLabels(w io.Writer, prg *program.Program) error {
	for _, address := range prg.LabelAddresses() {
		for _, l := range prg.Labels(address) {
			if _, err := fmt.Fprintf(w, "add_label $%04x .%s\n", address, l.Name); err != nil {
				return fmt.Errorf("writing label file: %w", err)
			}
		}
	}
	return nil
}
