package cfb

import "encoding/binary"

// next reads the chain entry for sector i from table. Entry i lives in
// table sector i/EntriesPerSector at slot i%EntriesPerSector.
func (c *Container) next(op string, table AllocationTable, i uint32) (uint32, error) {
	per := uint32(c.header.EntriesPerSector)
	tableSector := i / per
	if int64(tableSector) >= int64(len(table)) {
		return 0, structural(op, i, "table sector %d outside table of %d sectors", tableSector, len(table))
	}
	slot := i % per
	return c.buf.uint32At(c.header.SectorOffset(table[tableSector]) + int64(slot)*4)
}

// NextSector returns the sector that follows sector i in the main table.
func (c *Container) NextSector(i uint32) (uint32, error) {
	return c.next("fat", c.fat, i)
}

// NextMiniSector returns the mini sector that follows mini sector i.
func (c *Container) NextMiniSector(i uint32) (uint32, error) {
	return c.next("minifat", c.miniFAT, i)
}

// Chain returns the main-table chain starting at start, in order. A start of
// EndOfChain yields an empty chain.
func (c *Container) Chain(start uint32) ([]uint32, error) {
	return c.walk("fat", start, c.header.maxSectors(len(c.buf)), c.NextSector)
}

// MiniChain returns the mini-table chain starting at start.
func (c *Container) MiniChain(start uint32) ([]uint32, error) {
	limit := len(c.miniFAT) * c.header.EntriesPerSector
	return c.walk("minifat", start, limit, c.NextMiniSector)
}

// walk follows a chain until EndOfChain. A free sector inside the chain,
// a revisited sector, or more than limit sectors is a StructuralError.
func (c *Container) walk(op string, start uint32, limit int, next func(uint32) (uint32, error)) ([]uint32, error) {
	var out []uint32
	seen := make(map[uint32]struct{})
	for cur := start; cur != EndOfChain; {
		if cur == FreeSect {
			return nil, structural(op, cur, "free sector inside chain starting at %d", start)
		}
		if _, ok := seen[cur]; ok {
			return nil, structural(op, cur, "cycle in chain starting at %d", start)
		}
		if len(out) >= limit {
			return nil, structural(op, cur, "chain starting at %d longer than %d sectors", start, limit)
		}
		seen[cur] = struct{}{}
		out = append(out, cur)

		n, err := next(cur)
		if err != nil {
			return nil, err
		}
		cur = n
	}
	return out, nil
}

func decodeWords(p []byte) []uint32 {
	words := make([]uint32, len(p)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(p[i*4:])
	}
	return words
}
