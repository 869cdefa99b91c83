package cfb

import "encoding/binary"

// buffer is a bounds-checked, read-only view of the whole file.
type buffer []byte

func (b buffer) slice(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > int64(len(b)) || int64(n) > int64(len(b))-off {
		return nil, &IntegrityError{Offset: off, Length: n, Size: len(b)}
	}
	return b[off : off+int64(n)], nil
}

func (b buffer) uint8At(off int64) (uint8, error) {
	p, err := b.slice(off, 1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (b buffer) uint16At(off int64) (uint16, error) {
	p, err := b.slice(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (b buffer) uint32At(off int64) (uint32, error) {
	p, err := b.slice(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}
