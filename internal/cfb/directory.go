package cfb

import (
	"strings"
	"unicode/utf16"
)

// Kind is the object type byte of a directory record.
type Kind uint8

const (
	KindUnused  Kind = 0
	KindStorage Kind = 1
	KindStream  Kind = 2
	KindRoot    Kind = 5
)

func (k Kind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindStream:
		return "stream"
	case KindRoot:
		return "root"
	default:
		return "unused"
	}
}

// Entry is one directory record. Children is filled in for storages and the
// root after the tree is linked, in breadth-first sibling order.
type Entry struct {
	Index       int
	Kind        Kind
	Name        string
	Left        uint32
	Right       uint32
	Child       uint32
	StartSector uint32
	Size        uint32
	Children    []int
}

// IsStorage reports whether e can hold children.
func (e *Entry) IsStorage() bool {
	return e.Kind == KindStorage || e.Kind == KindRoot
}

// Directory is the index-addressed arena of directory records.
type Directory struct {
	entries []*Entry
}

// Len returns the number of records, including unused ones.
func (d *Directory) Len() int { return len(d.entries) }

// Entry returns record i, or nil when i is out of range.
func (d *Directory) Entry(i int) *Entry {
	if i < 0 || i >= len(d.entries) {
		return nil
	}
	return d.entries[i]
}

// Root returns entry 0.
func (d *Directory) Root() *Entry { return d.entries[0] }

// Walk calls fn for every entry reachable from the root, depth first, with
// its depth below the root. The root itself is visited at depth 0.
func (d *Directory) Walk(fn func(e *Entry, depth int)) {
	var visit func(i, depth int)
	visit = func(i, depth int) {
		e := d.entries[i]
		fn(e, depth)
		for _, ci := range e.Children {
			visit(ci, depth+1)
		}
	}
	visit(0, 0)
}

func (c *Container) readDirectory() (*Directory, error) {
	chain, err := c.Chain(c.header.DirStart)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, structural("directory", c.header.DirStart, "empty directory chain")
	}

	perSector := c.header.SectorSize / DirEntrySize
	dir := &Directory{entries: make([]*Entry, 0, len(chain)*perSector)}
	for _, sector := range chain {
		base := c.header.SectorOffset(sector)
		for i := 0; i < perSector; i++ {
			e, err := c.readEntry(base+int64(i*DirEntrySize), len(dir.entries))
			if err != nil {
				return nil, err
			}
			dir.entries = append(dir.entries, e)
		}
	}

	if dir.entries[0].Kind != KindRoot {
		return nil, structural("directory", 0, "entry 0 is %s, not root", dir.entries[0].Kind)
	}
	return dir, nil
}

func (c *Container) readEntry(off int64, index int) (*Entry, error) {
	rec, err := c.buf.slice(off, DirEntrySize)
	if err != nil {
		return nil, err
	}
	b := buffer(rec)
	// Offsets are inside a 128-byte record, so these reads cannot fail.
	nameLen, _ := b.uint16At(dirOffNameLen)
	kind, _ := b.uint8At(dirOffKind)
	e := &Entry{
		Index: index,
		Kind:  Kind(kind),
		Name:  decodeName(rec[dirOffName:dirOffName+dirNameFieldLen], int(nameLen)),
	}
	switch e.Kind {
	case KindStorage, KindStream, KindRoot:
	default:
		e.Kind = KindUnused
	}
	e.Left, _ = b.uint32At(dirOffLeft)
	e.Right, _ = b.uint32At(dirOffRight)
	e.Child, _ = b.uint32At(dirOffChild)
	e.StartSector, _ = b.uint32At(dirOffStart)
	e.Size, _ = b.uint32At(dirOffSize)
	return e, nil
}

// decodeName reads nameLen bytes of UTF-16LE from field, clamped to the
// field, and drops the terminator.
func decodeName(field []byte, nameLen int) string {
	n := min(nameLen, len(field)) / 2
	if n == 0 {
		return ""
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = uint16(field[2*i]) | uint16(field[2*i+1])<<8
	}
	return strings.TrimRight(string(utf16.Decode(units)), "\x00")
}

// link fills Children for every storage reachable from the root. Each
// storage's child subtree is read breadth first, left before right. An index
// may be reached once across the whole tree.
func (d *Directory) link() error {
	visited := make([]bool, len(d.entries))
	visited[0] = true

	storages := []int{0}
	for len(storages) > 0 {
		parent := d.entries[storages[len(storages)-1]]
		storages = storages[:len(storages)-1]
		if parent.Child == NoStream {
			continue
		}

		queue := []uint32{parent.Child}
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			if int64(i) >= int64(len(d.entries)) {
				return structural("directory", i, "link from entry %d outside directory of %d entries", parent.Index, len(d.entries))
			}
			if visited[i] {
				return structural("directory", i, "entry reached twice (cycle) under entry %d", parent.Index)
			}
			visited[i] = true

			e := d.entries[i]
			if e.Kind == KindUnused {
				continue
			}
			parent.Children = append(parent.Children, int(i))
			if e.Kind == KindStorage {
				storages = append(storages, int(i))
			}
			if e.Left != NoStream {
				queue = append(queue, e.Left)
			}
			if e.Right != NoStream {
				queue = append(queue, e.Right)
			}
		}
	}
	return nil
}
