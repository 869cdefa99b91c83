package cfb

// StreamBytes returns the declared-length contents of a stream entry.
// Streams shorter than MiniStreamCutoff are read from the mini stream, the
// rest from regular sectors. A single mini sector, or a single regular
// sector, is returned as a slice of the underlying buffer; callers must not
// modify it.
func (c *Container) StreamBytes(e *Entry) ([]byte, error) {
	if e == nil {
		return nil, structural("stream", 0, "nil entry")
	}
	if e.Size == 0 {
		return []byte{}, nil
	}
	if e.Size < MiniStreamCutoff {
		return c.miniStreamBytes(e)
	}
	return c.regularStreamBytes(e)
}

func (c *Container) miniStreamBytes(e *Entry) ([]byte, error) {
	chain, err := c.MiniChain(e.StartSector)
	if err != nil {
		return nil, err
	}
	if int64(len(chain))*MiniSectorSize < int64(e.Size) {
		return nil, structural("stream", uint32(e.Index), "mini chain of %d sectors shorter than size %d", len(chain), e.Size)
	}

	if len(chain) == 1 {
		off, err := c.miniSectorOffset(chain[0])
		if err != nil {
			return nil, err
		}
		return c.buf.slice(off, int(e.Size))
	}

	out := make([]byte, 0, e.Size)
	for _, ms := range chain {
		off, err := c.miniSectorOffset(ms)
		if err != nil {
			return nil, err
		}
		n := min(MiniSectorSize, int(e.Size)-len(out))
		p, err := c.buf.slice(off, n)
		if err != nil {
			return nil, err
		}
		out = append(out, p...)
		if len(out) == int(e.Size) {
			break
		}
	}
	return out, nil
}

// miniSectorOffset maps mini sector ms to a file offset through the root
// entry's chain.
func (c *Container) miniSectorOffset(ms uint32) (int64, error) {
	miniOff := int64(ms) * MiniSectorSize
	idx := miniOff / int64(c.header.SectorSize)
	if idx >= int64(len(c.miniStream)) {
		return 0, structural("ministream", ms, "mini sector outside mini stream of %d sectors", len(c.miniStream))
	}
	return c.header.SectorOffset(c.miniStream[idx]) + miniOff%int64(c.header.SectorSize), nil
}

func (c *Container) regularStreamBytes(e *Entry) ([]byte, error) {
	size := int(e.Size)
	need := (size + c.header.SectorSize - 1) / c.header.SectorSize

	chain, err := c.Chain(e.StartSector)
	if err != nil {
		return nil, err
	}
	if len(chain) < need {
		return nil, structural("stream", uint32(e.Index), "chain of %d sectors shorter than size %d", len(chain), e.Size)
	}

	if need == 1 {
		return c.buf.slice(c.header.SectorOffset(chain[0]), size)
	}
	out := make([]byte, 0, size)
	for _, s := range chain[:need] {
		n := min(c.header.SectorSize, size-len(out))
		p, err := c.buf.slice(c.header.SectorOffset(s), n)
		if err != nil {
			return nil, err
		}
		out = append(out, p...)
	}
	return out, nil
}
