// Package cfb reads Compound File Binary (OLE2 structured storage) containers.
//
// A compound file is a small filesystem packed into sectors:
//   - a 512-byte header naming the sector size and table locations
//   - the FAT, a sector -> next sector chain table, located through the
//     header DIFAT array and optional chained DIFAT sectors
//   - the mini FAT, the same for 64-byte mini sectors inside the root
//     entry's stream
//   - a directory of 128-byte records linked by sibling and child indices
//
// The whole file is held in memory and never modified. Every chain walk is
// bounded so corrupt or hostile files fail with a StructuralError instead of
// looping.
package cfb

import (
	"log/slog"
)

// Option configures Open.
type Option func(*Container)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Container is a parsed compound file.
type Container struct {
	buf     buffer
	header  *Header
	fat     AllocationTable
	miniFAT AllocationTable
	dir     *Directory

	// miniStream is the main-table chain of the root entry, which stores
	// the mini stream.
	miniStream []uint32

	logger *slog.Logger
}

// Open parses the header, allocation tables and directory of data.
// It returns ErrFormat when the signature is missing.
func Open(data []byte, opts ...Option) (*Container, error) {
	c := &Container{
		buf:    buffer(data),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	c.header = h
	c.logger.Debug("compound file header",
		"sector_size", h.SectorSize,
		"fat_sectors", h.NumFATSectors,
		"minifat_sectors", h.NumMiniFATSectors,
		"difat_sectors", h.NumDIFATSectors,
	)

	if c.fat, err = c.buildFAT(); err != nil {
		return nil, err
	}
	if c.miniFAT, err = c.buildMiniFAT(); err != nil {
		return nil, err
	}
	if c.dir, err = c.readDirectory(); err != nil {
		return nil, err
	}
	if err := c.dir.link(); err != nil {
		return nil, err
	}

	if root := c.dir.Root(); root.StartSector != FreeSect {
		if c.miniStream, err = c.Chain(root.StartSector); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("compound file directory",
		"entries", c.dir.Len(),
		"mini_stream_sectors", len(c.miniStream),
	)
	return c, nil
}

// Header returns a copy of the decoded header.
func (c *Container) Header() Header { return *c.header }

// Directory returns the directory arena.
func (c *Container) Directory() *Directory { return c.dir }

// FAT returns the main allocation table: the sector locations of the FAT.
func (c *Container) FAT() AllocationTable { return c.fat }

// MiniFAT returns the sector locations of the mini FAT.
func (c *Container) MiniFAT() AllocationTable { return c.miniFAT }

// SectorOffset returns the file offset of sector n.
func (c *Container) SectorOffset(n uint32) int64 { return c.header.SectorOffset(n) }
