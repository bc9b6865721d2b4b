// Package container contains the types shared by the container format parsers.
// Parsers are pure functions over byte slices and never access the filesystem.
package container

import (
	"errors"
	"fmt"
	"math"
)

// CompressedEntropy is the entropy in bits per byte above which an image is
// probably compressed or encrypted.
const CompressedEntropy = 7.5

// ErrNoEntries is returned when a container holds no extractable file.
var ErrNoEntries = errors.New("container has no entries")

// ErrEntryNotFound is returned for an invalid entry index.
var ErrEntryNotFound = errors.New("entry not found")

// ParseError is a malformed container error with the offset of the problem.
type ParseError struct {
	Format string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: offset $%04x: %s", e.Format, e.Offset, e.Msg)
}

// Errorf returns a new parse error.
func Errorf(format string, offset int, msg string, args ...any) error {
	return &ParseError{
		Format: format,
		Offset: offset,
		Msg:    fmt.Sprintf(msg, args...),
	}
}

// Image is a memory image extracted from a container.
type Image struct {
	Name   string
	Origin uint16
	Data   []byte

	EntryHint    uint16 // entry point suggested by the container
	HasEntryHint bool
}

// Entropy returns the Shannon entropy of the image data in bits per byte.
func (img Image) Entropy() float64 {
	return Entropy(img.Data)
}

// ProbablyCompressed returns whether the entropy of the image suggests that it
// is compressed.
func (img Image) ProbablyCompressed() bool {
	return img.Entropy() > CompressedEntropy
}

// Entry describes a file in a container directory.
type Entry struct {
	Index  int
	Name   string
	Type   string
	Start  uint16 // load address if the container stores it
	Size   int
	Blocks int
}

func (e Entry) String() string {
	return fmt.Sprintf("%3d %-16q %-3s $%04x %6d bytes", e.Index, e.Name, e.Type, e.Start, e.Size)
}

// Entropy returns the Shannon entropy of the data in bits per byte.
func Entropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	size := float64(len(data))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / size
		entropy -= p * math.Log2(p)
	}
	return entropy
}
