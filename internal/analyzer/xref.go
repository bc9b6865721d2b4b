package analyzer

import (
	"slices"
)

// CrossReferences maps referenced addresses to the addresses of the
// instructions or data that reference them.
type CrossReferences struct {
	refs map[uint16][]uint16
}

// NewCrossReferences returns an empty cross reference map.
func NewCrossReferences() *CrossReferences {
	return &CrossReferences{
		refs: map[uint16][]uint16{},
	}
}

// Add records a reference from source to target.
func (c *CrossReferences) Add(target, source uint16) {
	c.refs[target] = append(c.refs[target], source)
}

// Sources returns the sorted and deduplicated sources referencing the target,
// truncated to limit entries. A limit of 0 or less returns all sources.
func (c *CrossReferences) Sources(target uint16, limit int) []uint16 {
	sources := slices.Clone(c.refs[target])
	slices.Sort(sources)
	sources = slices.Compact(sources)
	if limit > 0 && len(sources) > limit {
		sources = sources[:limit]
	}
	return sources
}

// Count returns the number of distinct sources referencing the target.
func (c *CrossReferences) Count(target uint16) int {
	return len(c.Sources(target, 0))
}

// Targets returns all referenced addresses in ascending order.
func (c *CrossReferences) Targets() []uint16 {
	targets := make([]uint16, 0, len(c.refs))
	for target := range c.refs {
		targets = append(targets, target)
	}
	slices.Sort(targets)
	return targets
}
