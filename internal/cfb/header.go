package cfb

import "bytes"

// Header holds the header fields the reader needs.
type Header struct {
	// SectorSize is 512 or 4096.
	SectorSize int
	// EntriesPerSector is the number of 32-bit entries in one sector.
	EntriesPerSector int
	// DIFATWidth is the number of FAT locators per DIFAT sector; the last
	// slot of each DIFAT sector points to the next DIFAT sector.
	DIFATWidth int

	NumFATSectors     uint32
	DirStart          uint32
	MiniFATStart      uint32
	NumMiniFATSectors uint32
	DIFATStart        uint32
	NumDIFATSectors   uint32
}

// HasSignature reports whether data starts with the compound file signature.
func HasSignature(data []byte) bool {
	return len(data) >= len(Signature) && bytes.Equal(data[:len(Signature)], Signature[:])
}

// ReadHeader validates the signature and decodes the fixed header fields.
func ReadHeader(data []byte) (*Header, error) {
	if !HasSignature(data) {
		return nil, ErrFormat
	}
	buf := buffer(data)

	shift, err := buf.uint8At(offSectorShift)
	if err != nil {
		return nil, err
	}
	h := &Header{SectorSize: SmallSectorSize}
	if shift == largeSectorShift {
		h.SectorSize = LargeSectorSize
	}
	h.EntriesPerSector = h.SectorSize / 4
	h.DIFATWidth = h.EntriesPerSector - 1

	fields := []struct {
		off int64
		dst *uint32
	}{
		{offNumFATSectors, &h.NumFATSectors},
		{offDirStart, &h.DirStart},
		{offMiniFATStart, &h.MiniFATStart},
		{offNumMiniFAT, &h.NumMiniFATSectors},
		{offDIFATStart, &h.DIFATStart},
		{offNumDIFAT, &h.NumDIFATSectors},
	}
	for _, f := range fields {
		v, err := buf.uint32At(f.off)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return h, nil
}

// SectorOffset returns the file offset of sector n. Sector slot 0 holds the header.
func (h *Header) SectorOffset(n uint32) int64 {
	return (int64(n) + 1) * int64(h.SectorSize)
}

// maxSectors is the number of sectors, including a trailing partial one,
// the buffer can hold after the header.
func (h *Header) maxSectors(size int) int {
	n := (size+h.SectorSize-1)/h.SectorSize - 1
	if n < 0 {
		return 0
	}
	return n
}
