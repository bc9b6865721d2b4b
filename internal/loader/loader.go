// Package loader handles input file loading and container extraction.
package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retroworkbench/internal/container"
	"github.com/retroenv/retroworkbench/internal/container/crt"
	"github.com/retroenv/retroworkbench/internal/container/d64"
	"github.com/retroenv/retroworkbench/internal/container/prg"
	"github.com/retroenv/retroworkbench/internal/container/t64"
	"github.com/retroenv/retroworkbench/internal/container/tap"
	"github.com/retroenv/retroworkbench/internal/container/vsf"
	"github.com/retroenv/retroworkbench/internal/detector"
	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// ErrProjectFile is returned when a project file is passed to the image loader.
var ErrProjectFile = errors.New("project files are not memory images")

// Result is a loaded memory image together with the directory of the
// container it was extracted from.
type Result struct {
	Format  detector.Format
	Image   container.Image
	Entries []container.Entry // directory of archive formats
	Entry   int               // index of the extracted entry
}

// Loader handles loading input files from disk.
type Loader struct {
	logger *log.Logger
}

// New creates a new file loader.
func New(logger *log.Logger) *Loader {
	return &Loader{
		logger: logger,
	}
}

// Load reads the input file and extracts the memory image based on the format.
func (l *Loader) Load(opts options.Program, format detector.Format) (*Result, error) {
	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", opts.Input, err)
	}

	res, err := l.Parse(data, opts, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s file %s: %w", format, opts.Input, err)
	}
	return res, nil
}

// Parse extracts the memory image of the file data based on the format.
func (l *Loader) Parse(data []byte, opts options.Program, format detector.Format) (*Result, error) {
	res := &Result{
		Format: format,
		Entry:  opts.Entry,
	}

	var err error
	switch format {
	case detector.Raw:
		err = parseRaw(res, data, opts)
	case detector.PRG:
		res.Image, err = prg.Parse(data)
	case detector.CRT:
		err = parseCartridge(res, data)
	case detector.T64:
		err = parseT64(res, data)
	case detector.TAP:
		err = parseTape(res, data)
	case detector.D64:
		err = parseDisk(res, data)
	case detector.VSF:
		err = parseSnapshot(res, data)
	case detector.Project:
		return nil, ErrProjectFile
	default:
		return nil, fmt.Errorf("unsupported format %d", format)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Loaded image",
		log.Stringer("format", format),
		log.String("name", res.Image.Name),
		log.Hex("origin", res.Image.Origin),
		log.Int("size", len(res.Image.Data)))

	if res.Image.ProbablyCompressed() {
		l.logger.Warn("Image has a high entropy and is probably compressed",
			log.String("entropy", fmt.Sprintf("%.2f", res.Image.Entropy())))
	}
	return res, nil
}

func parseRaw(res *Result, data []byte, opts options.Program) error {
	origin, err := opts.RawOrigin()
	if err != nil {
		return err
	}
	res.Image = container.Image{
		Origin: origin,
		Data:   data,
	}
	return nil
}

func parseCartridge(res *Result, data []byte) error {
	cart, err := crt.Parse(data)
	if err != nil {
		return err
	}
	res.Entries = cart.Entries()
	res.Image, err = cart.Flatten()
	return err
}

func parseT64(res *Result, data []byte) error {
	archive, err := t64.Parse(data)
	if err != nil {
		return err
	}
	res.Entries = archive.List()
	if len(res.Entries) == 0 {
		return container.ErrNoEntries
	}
	if res.Entry < 0 {
		res.Entry = 0
	}
	res.Image, err = archive.Extract(res.Entry)
	return err
}

func parseTape(res *Result, data []byte) error {
	tape, err := tap.Parse(data)
	if err != nil {
		return err
	}
	res.Entries, err = tape.List()
	if err != nil {
		return err
	}
	if res.Entry < 0 {
		res.Entry = 0
	}
	res.Image, err = tape.Extract(res.Entry)
	return err
}

func parseDisk(res *Result, data []byte) error {
	disk, err := d64.Parse(data)
	if err != nil {
		return err
	}
	res.Entries = disk.List()
	if res.Entry < 0 {
		index, ok := disk.FirstProgram()
		if !ok {
			return fmt.Errorf("%w: disk has no program file", container.ErrNoEntries)
		}
		res.Entry = index
	}
	res.Image, err = disk.Extract(res.Entry)
	return err
}

func parseSnapshot(res *Result, data []byte) error {
	snapshot, err := vsf.Parse(data)
	if err != nil {
		return err
	}
	res.Image, err = snapshot.Image()
	return err
}
