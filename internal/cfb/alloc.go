package cfb

// AllocationTable lists, in order, the sectors that hold one chain table
// (the FAT or the mini FAT). Logical table sector i lives in physical
// sector AllocationTable[i].
type AllocationTable []uint32

// buildFAT collects the FAT sector locations from the header DIFAT array and
// any chained DIFAT sectors.
func (c *Container) buildFAT() (AllocationTable, error) {
	h := c.header
	maxSectors := h.maxSectors(len(c.buf))
	if int64(h.NumFATSectors) > int64(maxSectors) {
		return nil, structural("fat", h.NumFATSectors, "sector count exceeds file size (%d sectors)", maxSectors)
	}
	if int64(h.NumDIFATSectors) > int64(maxSectors) {
		return nil, structural("difat", h.NumDIFATSectors, "sector count exceeds file size (%d sectors)", maxSectors)
	}

	total := int(h.NumFATSectors)
	inHeader := min(total, headerDIFATCap)
	table := make(AllocationTable, 0, total)
	for i := 0; i < inHeader; i++ {
		loc, err := c.buf.uint32At(offHeaderDIFAT + int64(i)*4)
		if err != nil {
			return nil, err
		}
		table = append(table, loc)
	}

	if h.NumDIFATSectors == 0 {
		return table, nil
	}

	remaining := total - inHeader
	next := h.DIFATStart
	for i := 0; i < int(h.NumDIFATSectors); i++ {
		if next == EndOfChain || next == FreeSect {
			break
		}
		sector, err := c.buf.slice(h.SectorOffset(next), h.SectorSize)
		if err != nil {
			return nil, err
		}
		words := decodeWords(sector)

		take := min(remaining, h.DIFATWidth)
		for j := 0; j < take; j++ {
			loc := words[j]
			if loc == FreeSect || loc == EndOfChain {
				break
			}
			table = append(table, loc)
		}
		remaining -= take
		next = words[h.DIFATWidth]
	}
	return table, nil
}

// buildMiniFAT follows the main chain from the header's mini FAT start,
// stopping at end of chain or after the declared mini FAT sector count.
func (c *Container) buildMiniFAT() (AllocationTable, error) {
	h := c.header
	maxSectors := h.maxSectors(len(c.buf))
	if int64(h.NumMiniFATSectors) > int64(maxSectors) {
		return nil, structural("minifat", h.NumMiniFATSectors, "sector count exceeds file size (%d sectors)", maxSectors)
	}

	table := make(AllocationTable, 0, h.NumMiniFATSectors)
	cur := h.MiniFATStart
	for i := 0; i < int(h.NumMiniFATSectors) && cur != EndOfChain; i++ {
		table = append(table, cur)
		next, err := c.NextSector(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return table, nil
}
