package program

import (
	"fmt"
	"slices"
)

// Range is a half open offset range [Start, End) of the image.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes of the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains returns whether the offset is inside the range.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// CollapseRange marks a range to be displayed as a single placeholder line.
// Collapsed ranges can not overlap or touch each other.
func (p *Program) CollapseRange(r Range) error {
	if r.Start < 0 || r.End > len(p.data) || r.Start >= r.End {
		return fmt.Errorf("%w: collapse %d-%d, image has %d bytes", ErrInvalidRange, r.Start, r.End, len(p.data))
	}
	for _, c := range p.collapsed {
		if r.Start <= c.End && c.Start <= r.End {
			return fmt.Errorf("%w: %d-%d and %d-%d", ErrRangeOverlap, r.Start, r.End, c.Start, c.End)
		}
	}

	i, _ := slices.BinarySearchFunc(p.collapsed, r.Start, func(c Range, start int) int {
		return c.Start - start
	})
	p.collapsed = slices.Insert(p.collapsed, i, r)
	return nil
}

// UncollapseRange removes a collapsed range.
func (p *Program) UncollapseRange(r Range) error {
	i := slices.Index(p.collapsed, r)
	if i < 0 {
		return fmt.Errorf("%w: %d-%d", ErrRangeNotFound, r.Start, r.End)
	}
	p.collapsed = slices.Delete(p.collapsed, i, i+1)
	return nil
}

// CollapsedRanges returns all collapsed ranges ordered by offset.
func (p *Program) CollapsedRanges() []Range {
	return slices.Clone(p.collapsed)
}

// CollapsedAt returns the collapsed range that contains the offset.
func (p *Program) CollapsedAt(offset int) (Range, bool) {
	for _, r := range p.collapsed {
		if r.Contains(offset) {
			return r, true
		}
	}
	return Range{}, false
}
