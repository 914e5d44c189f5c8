package packindex

// A version 2 pack index file maps object identifiers to byte offsets
// within one pack. Layout, all multi-byte fields big-endian:
//   magic (4) | version (4)
//   fanout: 256 cumulative counts of identifiers whose first byte is <= b (4 each)
//   object identifiers, sorted ascending (hash width each)
//   crc32 of the packed object data (4 each)
//   offsets (4 each); high bit set means the low 31 bits index the next table
//   large offsets (8 each), present only when some offset needs 64 bits
//   pack checksum (hash width) | index checksum (hash width)

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"os"

	"github.com/AmrMurad1/Pack-Store/shared"
)

const (
	Version = 2

	headerSize      = 8
	fanoutSize      = 256 * 4
	largeOffsetFlag = 1 << 31
)

var magic = []byte{0xff, 't', 'O', 'c'}

// Entry is one object record of a pack index.
type Entry struct {
	OID    shared.ObjectID
	Offset uint64
	CRC32  uint32
}

type File struct {
	hashKind     shared.HashKind
	numObjects   uint32
	oids         []byte
	crcs         []byte
	offsets      []byte
	large        []byte
	packChecksum shared.ObjectID
	checksum     shared.ObjectID
}

// Open reads and parses the pack index at path for the given hash kind.
func Open(path string, kind shared.HashKind) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data, kind)
}

func parse(data []byte, kind shared.HashKind) (*File, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown hash kind %d", byte(kind))
	}
	width := kind.Width()

	if len(data) < headerSize+fanoutSize+2*width {
		return nil, errors.New("truncated pack index")
	}
	if !bytes.Equal(data[0:4], magic) {
		return nil, errors.New("invalid pack index: magic mismatch")
	}
	if v := binary.BigEndian.Uint32(data[4:8]); v != Version {
		return nil, fmt.Errorf("unsupported pack index version %d", v)
	}

	var prev uint32
	for i := 0; i < 256; i++ {
		c := binary.BigEndian.Uint32(data[headerSize+i*4:])
		if c < prev {
			return nil, errors.New("invalid pack index: fanout not monotonic")
		}
		prev = c
	}
	numObjects := prev

	n := int(numObjects)
	need := headerSize + fanoutSize + n*(width+8) + 2*width
	if len(data) < need {
		return nil, errors.New("truncated pack index")
	}
	largeSize := len(data) - need
	if largeSize%8 != 0 {
		return nil, errors.New("invalid pack index: misaligned large offset table")
	}

	pos := headerSize + fanoutSize
	f := &File{
		hashKind:   kind,
		numObjects: numObjects,
	}
	f.oids = data[pos : pos+n*width]
	pos += n * width
	f.crcs = data[pos : pos+n*4]
	pos += n * 4
	f.offsets = data[pos : pos+n*4]
	pos += n * 4
	f.large = data[pos : pos+largeSize]
	pos += largeSize
	f.packChecksum = shared.ObjectID(data[pos : pos+width])
	f.checksum = shared.ObjectID(data[pos+width : pos+2*width])

	largeCount := largeSize / 8
	for i := 0; i < n; i++ {
		o := binary.BigEndian.Uint32(f.offsets[i*4:])
		if o&largeOffsetFlag != 0 && int(o&^largeOffsetFlag) >= largeCount {
			return nil, errors.New("invalid pack index: large offset out of range")
		}
	}

	return f, nil
}

func (f *File) HashKind() shared.HashKind {
	return f.hashKind
}

func (f *File) NumObjects() uint32 {
	return f.numObjects
}

// PackChecksum is the trailing checksum of the pack this index describes.
func (f *File) PackChecksum() shared.ObjectID {
	return f.packChecksum
}

// Checksum is the index file's own trailing checksum.
func (f *File) Checksum() shared.ObjectID {
	return f.checksum
}

// Entry returns the i-th record in object-identifier order.
func (f *File) Entry(i uint32) Entry {
	width := f.hashKind.Width()
	pos := int(i) * width
	oid := shared.ObjectID(f.oids[pos : pos+width])
	crc := binary.BigEndian.Uint32(f.crcs[i*4:])
	o := binary.BigEndian.Uint32(f.offsets[i*4:])
	offset := uint64(o)
	if o&largeOffsetFlag != 0 {
		offset = binary.BigEndian.Uint64(f.large[(o&^largeOffsetFlag)*8:])
	}
	return Entry{OID: oid, Offset: offset, CRC32: crc}
}

// Entries iterates all records in ascending object-identifier order.
func (f *File) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i := uint32(0); i < f.numObjects; i++ {
			if !yield(f.Entry(i)) {
				return
			}
		}
	}
}
