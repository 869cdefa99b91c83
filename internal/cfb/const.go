package cfb

// Header layout. All integers are little-endian.
const (
	headerSize = 512

	offSectorShift   = 0x1E // low byte of the sector shift
	offNumFATSectors = 0x2C
	offDirStart      = 0x30
	offMiniFATStart  = 0x3C
	offNumMiniFAT    = 0x40
	offDIFATStart    = 0x44
	offNumDIFAT      = 0x48
	offHeaderDIFAT   = 0x4C

	// headerDIFATCap is the number of FAT sector locators stored in the header.
	headerDIFATCap = (headerSize - offHeaderDIFAT) / 4

	largeSectorShift = 0x0C
)

// Sector sizes.
const (
	SmallSectorSize = 512
	LargeSectorSize = 4096
	MiniSectorSize  = 64

	// MiniStreamCutoff is the size below which a stream lives in the mini stream.
	MiniStreamCutoff = 4096
)

// Directory record layout.
const (
	DirEntrySize = 128

	dirOffName      = 0x00
	dirNameFieldLen = 64
	dirOffNameLen   = 0x40
	dirOffKind      = 0x42
	dirOffLeft      = 0x44
	dirOffRight     = 0x48
	dirOffChild     = 0x4C
	dirOffStart     = 0x74
	dirOffSize      = 0x78
)

// Allocation table and directory sentinels.
const (
	MaxRegSect uint32 = 0xFFFFFFFA
	DIFATSect  uint32 = 0xFFFFFFFC
	FATSect    uint32 = 0xFFFFFFFD
	EndOfChain uint32 = 0xFFFFFFFE // -2
	FreeSect   uint32 = 0xFFFFFFFF // -1
	NoStream   uint32 = 0xFFFFFFFF // -1
)

// Signature is the magic number at offset 0 of every compound file.
var Signature = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
