// Package detector handles input file format detection.
package detector

import (
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// Format is the detected input file format.
type Format int

// Supported input file formats.
const (
	Raw Format = iota
	PRG
	CRT
	T64
	TAP
	D64
	VSF
	Project
)

var formatNames = map[Format]string{
	Raw:     "raw",
	PRG:     "prg",
	CRT:     "crt",
	T64:     "t64",
	TAP:     "tap",
	D64:     "d64",
	VSF:     "vsf",
	Project: "project",
}

func (f Format) String() string {
	return formatNames[f]
}

// IsArchive returns whether the format contains a directory of files.
func (f Format) IsArchive() bool {
	return f == T64 || f == TAP || f == D64
}

var extensions = map[string]Format{
	".prg":  PRG,
	".bin":  Raw,
	".raw":  Raw,
	".crt":  CRT,
	".t64":  T64,
	".tap":  TAP,
	".d64":  D64,
	".vsf":  VSF,
	".rwb":  Project,
	".json": Project,
}

// IsProject returns whether the file name has a project file extension.
func IsProject(filename string) bool {
	return extensions[strings.ToLower(filepath.Ext(filename))] == Project
}

// Detector handles input format detection from file extensions.
type Detector struct {
	logger *log.Logger
}

// New creates a new format detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the input format from the file extension. Unknown
// extensions are treated as raw binaries.
func (d *Detector) Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	format, ok := extensions[ext]
	if !ok {
		d.logger.Debug("Unknown file extension, loading as raw binary",
			log.String("file", filename),
			log.String("extension", ext))
		return Raw
	}

	d.logger.Debug("Detected input format",
		log.Stringer("format", format),
		log.String("file", filename))
	return format
}
