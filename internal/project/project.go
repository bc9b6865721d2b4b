// Package project implements the persistence of a program with all its
// annotations and settings as project file, and the VICE label file format.
package project

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/program"
)

// Version is the current project file format version.
const Version = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported project file version")
	ErrInvalidProject     = errors.New("invalid project file")
)

// Cursor stores the last view position.
type Cursor struct {
	Address uint16 `json:"address"`
	SubLine int    `json:"sub_line"`
}

// Project is a program together with its settings and view state.
type Project struct {
	Program  *program.Program
	Settings options.Settings
	Cursor   Cursor
}

type fileBlock struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Type      string `json:"type"`
	Collapsed bool   `json:"collapsed,omitempty"`
}

type fileLabel struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind"`
}

type fileAddressLabels struct {
	Address uint16      `json:"address"`
	Labels  []fileLabel `json:"labels"`
}

type fileComment struct {
	Address uint16 `json:"address"`
	Text    string `json:"text"`
}

type fileImmediateFormat struct {
	Address uint16 `json:"address"`
	Format  string `json:"format"`
	Target  uint16 `json:"target,omitempty"`
}

type file struct {
	Version          int                   `json:"version"`
	Origin           uint16                `json:"origin"`
	RawData          string                `json:"raw_data"`
	EntryHint        *uint16               `json:"entry_hint,omitempty"`
	Blocks           []fileBlock           `json:"blocks"`
	Labels           []fileAddressLabels   `json:"labels"`
	SideComments     []fileComment         `json:"side_comments"`
	LineComments     []fileComment         `json:"line_comments"`
	ImmediateFormats []fileImmediateFormat `json:"immediate_formats"`
	Splitters        []uint16              `json:"splitters"`
	Settings         options.Settings      `json:"settings"`
	Cursor           Cursor                `json:"cursor"`
}

// Marshal encodes the project. Auto labels are not stored as they are
// regenerated by the analyzer.
func Marshal(p *Project) ([]byte, error) {
	prg := p.Program
	raw, err := compress(prg.Data())
	if err != nil {
		return nil, err
	}

	f := file{
		Version:          Version,
		Origin:           prg.Origin(),
		RawData:          raw,
		Blocks:           blocks(prg),
		Labels:           []fileAddressLabels{},
		SideComments:     []fileComment{},
		LineComments:     []fileComment{},
		ImmediateFormats: []fileImmediateFormat{},
		Splitters:        append([]uint16{}, prg.Splitters()...),
		Settings:         p.Settings,
		Cursor:           p.Cursor,
	}
	if prg.HasEntryHint {
		hint := prg.EntryHint
		f.EntryHint = &hint
	}

	for _, address := range prg.LabelAddresses() {
		var labels []fileLabel
		for _, l := range prg.Labels(address) {
			if l.Kind == program.AutoLabel {
				continue
			}
			labels = append(labels, fileLabel{Name: l.Name, Type: l.Type.String(), Kind: l.Kind.String()})
		}
		if len(labels) > 0 {
			f.Labels = append(f.Labels, fileAddressLabels{Address: address, Labels: labels})
		}
	}
	for _, address := range prg.SideCommentAddresses() {
		text, _ := prg.SideComment(address)
		f.SideComments = append(f.SideComments, fileComment{Address: address, Text: text})
	}
	for _, address := range prg.LineCommentAddresses() {
		text, _ := prg.LineComment(address)
		f.LineComments = append(f.LineComments, fileComment{Address: address, Text: text})
	}
	for _, address := range prg.ImmediateFormatAddresses() {
		format, _ := prg.ImmediateFormat(address)
		f.ImmediateFormats = append(f.ImmediateFormats, fileImmediateFormat{
			Address: address,
			Format:  format.Kind.String(),
			Target:  format.Target,
		})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding project: %w", err)
	}
	return append(data, '\n'), nil
}

// blocks returns the runs of equal block types, split at collapsed range
// boundaries.
func blocks(prg *program.Program) []fileBlock {
	result := []fileBlock{}
	start := 0
	for offset := 1; offset <= prg.Len(); offset++ {
		if offset < prg.Len() && !blockBreaks(prg, offset) {
			continue
		}
		_, collapsed := prg.CollapsedAt(start)
		result = append(result, fileBlock{
			Start:     start,
			End:       offset - 1,
			Type:      prg.BlockTypeAt(start).String(),
			Collapsed: collapsed,
		})
		start = offset
	}
	return result
}

func blockBreaks(prg *program.Program, offset int) bool {
	if prg.BlockTypeAt(offset) != prg.BlockTypeAt(offset-1) {
		return true
	}
	for _, r := range prg.CollapsedRanges() {
		if r.Start == offset || r.End == offset {
			return true
		}
	}
	return false
}

// Unmarshal decodes a project. Missing settings use their defaults.
func Unmarshal(data []byte) (*Project, error) {
	f := file{
		Settings: options.NewSettings(),
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if f.Version > Version {
		return nil, fmt.Errorf("%w %d, supported version is %d", ErrUnsupportedVersion, f.Version, Version)
	}

	raw, err := decompress(f.RawData)
	if err != nil {
		return nil, err
	}
	prg, err := program.New(f.Origin, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if f.EntryHint != nil {
		prg.EntryHint = *f.EntryHint
		prg.HasEntryHint = true
	}

	if err := restoreBlocks(prg, f.Blocks); err != nil {
		return nil, err
	}
	if err := restoreAnnotations(prg, &f); err != nil {
		return nil, err
	}
	if err := prg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}

	f.Settings.Normalize()
	return &Project{
		Program:  prg,
		Settings: f.Settings,
		Cursor:   f.Cursor,
	}, nil
}

func restoreBlocks(prg *program.Program, blocks []fileBlock) error {
	collapsedStart := -1
	for i, b := range blocks {
		typ, err := program.ParseBlockType(b.Type)
		if err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrInvalidProject, i, err)
		}
		if err := prg.SetBlockTypeRegion(typ, b.Start, b.End); err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrInvalidProject, i, err)
		}

		if b.Collapsed && collapsedStart < 0 {
			collapsedStart = b.Start
		}
		lastOfRange := i == len(blocks)-1 || !blocks[i+1].Collapsed || blocks[i+1].Start != b.End+1
		if b.Collapsed && lastOfRange {
			if err := prg.CollapseRange(program.Range{Start: collapsedStart, End: b.End + 1}); err != nil {
				return fmt.Errorf("%w: block %d: %w", ErrInvalidProject, i, err)
			}
			collapsedStart = -1
		}
	}
	return nil
}

func restoreAnnotations(prg *program.Program, f *file) error {
	for _, entry := range f.Labels {
		for _, l := range entry.Labels {
			typ, err := program.ParseLabelType(l.Type)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidProject, err)
			}
			kind, err := program.ParseLabelKind(l.Kind)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidProject, err)
			}
			label := program.Label{Name: l.Name, Type: typ, Kind: kind}
			if err := prg.RestoreLabel(entry.Address, label); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidProject, err)
			}
		}
	}

	for _, c := range f.SideComments {
		if err := prg.SetSideComment(c.Address, c.Text); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}
	for _, c := range f.LineComments {
		if err := prg.SetLineComment(c.Address, c.Text); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}
	for _, entry := range f.ImmediateFormats {
		kind, err := program.ParseImmediateKind(entry.Format)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
		format := program.ImmediateFormat{Kind: kind, Target: entry.Target}
		if err := prg.SetImmediateFormat(entry.Address, format); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}
	for _, address := range f.Splitters {
		if prg.IsSplitter(address) {
			continue
		}
		if err := prg.ToggleSplitter(address); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}
	return nil
}

// compress returns the base64 encoded gzip stream of the data. The gzip
// header has no timestamp or name to keep the output deterministic.
func compress(data []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("compressing data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compressing data: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decompress(s string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding raw data: %w", ErrInvalidProject, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing raw data: %w", ErrInvalidProject, err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing raw data: %w", ErrInvalidProject, err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("%w: decompressing raw data: %w", ErrInvalidProject, err)
	}
	return data, nil
}

// SaveFile writes the project file.
func SaveFile(path string, p *Project) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing project file %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a project file.
func LoadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file %s: %w", path, err)
	}
	p, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("loading project file %s: %w", path, err)
	}
	return p, nil
}
