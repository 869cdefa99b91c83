// Package msgtest builds synthetic compound files and .msg images for tests.
//
// A Builder lays out a complete, valid file: header, FAT (with DIFAT sectors
// when more than 109 FAT sectors are requested), mini FAT, directory, mini
// stream and regular streams. Tests that need corrupt input build a valid
// image and then patch it through the Image setters.
package msgtest

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const (
	endOfChain uint32 = 0xFFFFFFFE
	freeSect   uint32 = 0xFFFFFFFF
	noStream   uint32 = 0xFFFFFFFF
	fatSect    uint32 = 0xFFFFFFFD
	difatSect  uint32 = 0xFFFFFFFC

	kindStorage = 1
	kindStream  = 2
	kindRoot    = 5

	miniSectorSize = 64
	miniCutoff     = 4096
	dirEntrySize   = 128
	headerDIFATCap = 109
)

var signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// PropName returns the stream or storage name of a MAPI property, for
// example PropName("0037", "001F") = "__substg1.0_0037001F".
func PropName(class, typ string) string {
	return fmt.Sprintf("__substg1.0_%s%s", class, typ)
}

// AttachmentName returns the storage name of attachment i.
func AttachmentName(i int) string { return fmt.Sprintf("__attach_version1.0_#%08X", i) }

// RecipientName returns the storage name of recipient i.
func RecipientName(i int) string { return fmt.Sprintf("__recip_version1.0_#%08X", i) }

// Node is a storage or stream in the tree being built.
type Node struct {
	name     string
	kind     uint8
	data     []byte
	children []*Node
}

// Storage adds a child storage and returns it.
func (n *Node) Storage(name string) *Node {
	c := &Node{name: name, kind: kindStorage}
	n.children = append(n.children, c)
	return c
}

// Stream adds a child stream holding data.
func (n *Node) Stream(name string, data []byte) *Node {
	n.children = append(n.children, &Node{name: name, kind: kindStream, data: data})
	return n
}

// String8 adds a 001E property stream holding v as raw bytes.
func (n *Node) String8(class, v string) *Node {
	return n.Stream(PropName(class, "001E"), []byte(v))
}

// Unicode adds a 001F property stream holding v as UTF-16LE without a terminator.
func (n *Node) Unicode(class, v string) *Node {
	return n.Stream(PropName(class, "001F"), UTF16(v))
}

// Binary adds a 0102 property stream.
func (n *Node) Binary(class string, data []byte) *Node {
	return n.Stream(PropName(class, "0102"), data)
}

// Attachment adds attachment storage i.
func (n *Node) Attachment(i int) *Node { return n.Storage(AttachmentName(i)) }

// Recipient adds recipient storage i.
func (n *Node) Recipient(i int) *Node { return n.Storage(RecipientName(i)) }

// EmbeddedMessage adds the 3701/000D storage that marks an attached message.
func (n *Node) EmbeddedMessage() *Node { return n.Storage(PropName("3701", "000D")) }

// UTF16 encodes s as UTF-16LE.
func UTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out
}

// Builder lays out a compound file.
type Builder struct {
	sectorSize    int
	minFATSectors int
	root          *Node
}

// New returns a builder for a 512-byte-sector file with an empty root.
func New() *Builder {
	return &Builder{
		sectorSize: 512,
		root:       &Node{name: "Root Entry", kind: kindRoot},
	}
}

// SectorSize selects 512 or 4096 byte sectors.
func (b *Builder) SectorSize(n int) *Builder { b.sectorSize = n; return b }

// MinFATSectors pads the FAT to at least n sectors. More than 109 forces
// DIFAT sectors.
func (b *Builder) MinFATSectors(n int) *Builder { b.minFATSectors = n; return b }

// Root returns the root storage.
func (b *Builder) Root() *Node { return b.root }

// Bytes builds the file and returns its bytes.
func (b *Builder) Bytes() []byte { return b.Build().Bytes() }

type dirRecord struct {
	node               *Node
	left, right, child uint32
	start, size        uint32
}

// Build lays out the file.
func (b *Builder) Build() *Image {
	ss := b.sectorSize
	per := ss / 4

	// Directory order: depth-first, each storage's children as a right-sibling list.
	var recs []*dirRecord
	index := map[*Node]int{}
	var add func(n *Node) int
	add = func(n *Node) int {
		i := len(recs)
		recs = append(recs, &dirRecord{node: n, left: noStream, right: noStream, child: noStream})
		index[n] = i
		prev := -1
		for _, c := range n.children {
			ci := add(c)
			if prev < 0 {
				recs[i].child = uint32(ci)
			} else {
				recs[prev].right = uint32(ci)
			}
			prev = ci
		}
		return i
	}
	add(b.root)

	// Mini stream and mini FAT.
	var ministream []byte
	var miniFAT []uint32
	var large []*dirRecord
	for _, r := range recs {
		if r.node.kind != kindStream {
			continue
		}
		r.size = uint32(len(r.node.data))
		switch {
		case len(r.node.data) == 0:
			r.start = endOfChain
		case len(r.node.data) < miniCutoff:
			first := len(miniFAT)
			n := (len(r.node.data) + miniSectorSize - 1) / miniSectorSize
			for k := 0; k < n; k++ {
				if k == n-1 {
					miniFAT = append(miniFAT, endOfChain)
				} else {
					miniFAT = append(miniFAT, uint32(first+k+1))
				}
			}
			r.start = uint32(first)
			padded := make([]byte, n*miniSectorSize)
			copy(padded, r.node.data)
			ministream = append(ministream, padded...)
		default:
			large = append(large, r)
		}
	}

	ceil := func(n int) int { return (n + ss - 1) / ss }
	nMiniFAT := ceil(len(miniFAT) * 4)
	dirPerSector := ss / dirEntrySize
	nDir := (len(recs) + dirPerSector - 1) / dirPerSector
	nMini := ceil(len(ministream))
	nLarge := 0
	for _, r := range large {
		nLarge += ceil(len(r.node.data))
	}

	nFAT, nDIFAT := max(1, b.minFATSectors), 0
	for {
		nDIFAT = 0
		if nFAT > headerDIFATCap {
			nDIFAT = (nFAT - headerDIFATCap + per - 2) / (per - 1)
		}
		total := nFAT + nDIFAT + nMiniFAT + nDir + nMini + nLarge
		if nFAT*per >= total {
			break
		}
		nFAT++
	}

	img := &Image{sectorSize: ss}
	fat := make([]uint32, nFAT*per)
	for i := range fat {
		fat[i] = freeSect
	}
	next := 0
	alloc := func(n int) uint32 {
		if n == 0 {
			return endOfChain
		}
		first := next
		for k := 0; k < n; k++ {
			if k == n-1 {
				fat[first+k] = endOfChain
			} else {
				fat[first+k] = uint32(first + k + 1)
			}
		}
		next += n
		return uint32(first)
	}

	fatStart := next
	for k := 0; k < nFAT; k++ {
		fat[next] = fatSect
		next++
	}
	difatStart := next
	for k := 0; k < nDIFAT; k++ {
		fat[next] = difatSect
		next++
	}
	miniFATStart := alloc(nMiniFAT)
	dirStart := alloc(nDir)
	for k := 0; k < nDir; k++ {
		img.dirSectors = append(img.dirSectors, dirStart+uint32(k))
	}
	miniStart := alloc(nMini)
	for _, r := range large {
		r.start = alloc(ceil(len(r.node.data)))
	}
	recs[0].start = miniStart
	recs[0].size = uint32(len(ministream))
	if len(ministream) == 0 {
		recs[0].start = endOfChain
	}

	img.data = make([]byte, (next+1)*ss)
	h := img.data
	copy(h, signature)
	binary.LittleEndian.PutUint16(h[0x18:], 0x3E)
	if ss == 4096 {
		binary.LittleEndian.PutUint16(h[0x1A:], 4)
		binary.LittleEndian.PutUint16(h[0x1E:], 0x0C)
		binary.LittleEndian.PutUint32(h[0x28:], uint32(nDir))
	} else {
		binary.LittleEndian.PutUint16(h[0x1A:], 3)
		binary.LittleEndian.PutUint16(h[0x1E:], 0x09)
	}
	binary.LittleEndian.PutUint16(h[0x1C:], 0xFFFE)
	binary.LittleEndian.PutUint16(h[0x20:], 0x06)
	binary.LittleEndian.PutUint32(h[0x2C:], uint32(nFAT))
	binary.LittleEndian.PutUint32(h[0x30:], dirStart)
	binary.LittleEndian.PutUint32(h[0x38:], miniCutoff)
	binary.LittleEndian.PutUint32(h[0x3C:], miniFATStart)
	binary.LittleEndian.PutUint32(h[0x40:], uint32(nMiniFAT))
	if nDIFAT > 0 {
		binary.LittleEndian.PutUint32(h[0x44:], uint32(difatStart))
	} else {
		binary.LittleEndian.PutUint32(h[0x44:], endOfChain)
	}
	binary.LittleEndian.PutUint32(h[0x48:], uint32(nDIFAT))
	for k := 0; k < headerDIFATCap; k++ {
		v := freeSect
		if k < nFAT {
			v = uint32(fatStart + k)
		}
		binary.LittleEndian.PutUint32(h[0x4C+4*k:], v)
	}

	// DIFAT sectors.
	loc := headerDIFATCap
	for d := 0; d < nDIFAT; d++ {
		sec := img.sector(uint32(difatStart + d))
		for k := 0; k < per-1; k++ {
			v := freeSect
			if loc < nFAT {
				v = uint32(fatStart + loc)
				loc++
			}
			binary.LittleEndian.PutUint32(sec[4*k:], v)
		}
		nextDIFAT := endOfChain
		if d < nDIFAT-1 {
			nextDIFAT = uint32(difatStart + d + 1)
		}
		binary.LittleEndian.PutUint32(sec[4*(per-1):], nextDIFAT)
	}

	// FAT sectors.
	for k := 0; k < nFAT; k++ {
		sec := img.sector(uint32(fatStart + k))
		for j := 0; j < per; j++ {
			binary.LittleEndian.PutUint32(sec[4*j:], fat[k*per+j])
		}
	}

	// Mini FAT.
	img.writeWords(miniFATStart, miniFAT, freeSect)

	// Directory.
	for i := 0; i < nDir*dirPerSector; i++ {
		rec := img.record(i)
		if i >= len(recs) {
			binary.LittleEndian.PutUint32(rec[0x44:], noStream)
			binary.LittleEndian.PutUint32(rec[0x48:], noStream)
			binary.LittleEndian.PutUint32(rec[0x4C:], noStream)
			continue
		}
		r := recs[i]
		name := UTF16(r.node.name)
		if len(name) > 62 {
			name = name[:62]
		}
		copy(rec, name)
		binary.LittleEndian.PutUint16(rec[0x40:], uint16(len(name)+2))
		rec[0x42] = r.node.kind
		rec[0x43] = 1
		binary.LittleEndian.PutUint32(rec[0x44:], r.left)
		binary.LittleEndian.PutUint32(rec[0x48:], r.right)
		binary.LittleEndian.PutUint32(rec[0x4C:], r.child)
		binary.LittleEndian.PutUint32(rec[0x74:], r.start)
		binary.LittleEndian.PutUint32(rec[0x78:], r.size)
	}

	// Stream data.
	img.writeBytes(miniStart, ministream)
	for _, r := range large {
		img.writeBytes(r.start, r.node.data)
	}

	img.names = make(map[string]int, len(recs))
	for i, r := range recs {
		if _, dup := img.names[r.node.name]; !dup {
			img.names[r.node.name] = i
		}
	}
	return img
}

// Image is a built file that tests may corrupt in place.
type Image struct {
	data       []byte
	sectorSize int
	dirSectors []uint32
	names      map[string]int
}

// Bytes returns the file contents. The slice aliases the image.
func (img *Image) Bytes() []byte { return img.data }

// Index returns the directory index of the first entry named name, or -1.
func (img *Image) Index(name string) int {
	if i, ok := img.names[name]; ok {
		return i
	}
	return -1
}

// SectorOffset returns the file offset of sector n.
func (img *Image) SectorOffset(n uint32) int { return (int(n) + 1) * img.sectorSize }

// PutUint32 writes v at file offset off.
func (img *Image) PutUint32(off int, v uint32) {
	binary.LittleEndian.PutUint32(img.data[off:], v)
}

// SetLeft sets the left sibling of entry i.
func (img *Image) SetLeft(i int, v uint32) { img.putRecord(i, 0x44, v) }

// SetRight sets the right sibling of entry i.
func (img *Image) SetRight(i int, v uint32) { img.putRecord(i, 0x48, v) }

// SetChild sets the child of entry i.
func (img *Image) SetChild(i int, v uint32) { img.putRecord(i, 0x4C, v) }

// SetStart sets the start sector of entry i.
func (img *Image) SetStart(i int, v uint32) { img.putRecord(i, 0x74, v) }

// SetSize sets the declared size of entry i.
func (img *Image) SetSize(i int, v uint32) { img.putRecord(i, 0x78, v) }

// SetKind sets the object type byte of entry i.
func (img *Image) SetKind(i int, kind uint8) { img.record(i)[0x42] = kind }

func (img *Image) putRecord(i, off int, v uint32) {
	binary.LittleEndian.PutUint32(img.record(i)[off:], v)
}

func (img *Image) record(i int) []byte {
	per := img.sectorSize / dirEntrySize
	sec := img.sector(img.dirSectors[i/per])
	off := (i % per) * dirEntrySize
	return sec[off : off+dirEntrySize]
}

func (img *Image) sector(n uint32) []byte {
	off := img.SectorOffset(n)
	return img.data[off : off+img.sectorSize]
}

// writeBytes copies p into the consecutive sectors starting at start.
func (img *Image) writeBytes(start uint32, p []byte) {
	if len(p) == 0 || start == endOfChain {
		return
	}
	copy(img.data[img.SectorOffset(start):], p)
}

func (img *Image) writeWords(start uint32, words []uint32, pad uint32) {
	if start == endOfChain {
		return
	}
	off := img.SectorOffset(start)
	n := (len(words)*4 + img.sectorSize - 1) / img.sectorSize * img.sectorSize / 4
	for k := 0; k < n; k++ {
		v := pad
		if k < len(words) {
			v = words[k]
		}
		binary.LittleEndian.PutUint32(img.data[off+4*k:], v)
	}
}
