package program

// BlockItemKind defines the kind of an entry of the blocks view.
type BlockItemKind uint8

// block view item kinds.
const (
	BlockRun BlockItemKind = iota
	BlockSplitter
)

// BlockItem is an entry of the blocks view, either a run of bytes with the same
// block type or a splitter.
type BlockItem struct {
	Kind      BlockItemKind
	Start     uint16 // first address of the run or address of the splitter
	End       uint16 // last address of the run, inclusive
	Type      BlockType
	Collapsed bool
}

// BlockRange returns the first and last address of the run of bytes with the
// same block type that contains the address. Runs are broken at splitters.
func (p *Program) BlockRange(address uint16) (uint16, uint16, bool) {
	offset, ok := p.Offset(address)
	if !ok {
		return 0, 0, false
	}
	typ := p.blockTypes[offset]

	start := offset
	for start > 0 && p.blockTypes[start-1] == typ && !p.splitters.Has(p.AddressOf(start)) {
		start--
	}
	end := offset
	for end+1 < len(p.data) && p.blockTypes[end+1] == typ && !p.splitters.Has(p.AddressOf(end+1)) {
		end++
	}
	return p.AddressOf(start), p.AddressOf(end), true
}

// BlocksView returns the merged runs of block types interleaved with splitters.
// Runs also break at collapsed range boundaries.
func (p *Program) BlocksView() []BlockItem {
	var items []BlockItem
	start := 0
	for offset := 0; offset <= len(p.data); offset++ {
		address := int(p.origin) + offset
		atSplitter := address < AddressSpaceSize && p.splitters.Has(uint16(address))

		if offset > start && (offset == len(p.data) || atSplitter || p.runBreaks(offset)) {
			_, collapsed := p.CollapsedAt(start)
			items = append(items, BlockItem{
				Kind:      BlockRun,
				Start:     p.AddressOf(start),
				End:       p.AddressOf(offset - 1),
				Type:      p.blockTypes[start],
				Collapsed: collapsed,
			})
			start = offset
		}
		if atSplitter {
			items = append(items, BlockItem{
				Kind:  BlockSplitter,
				Start: uint16(address),
				End:   uint16(address),
			})
		}
	}
	return items
}

// runBreaks returns whether a new run starts at the offset.
func (p *Program) runBreaks(offset int) bool {
	if p.blockTypes[offset] != p.blockTypes[offset-1] {
		return true
	}
	for _, r := range p.collapsed {
		if r.Start == offset || r.End == offset {
			return true
		}
	}
	return false
}
