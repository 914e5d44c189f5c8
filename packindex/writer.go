package packindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/AmrMurad1/Pack-Store/shared"
)

// the largest pack offset storable directly in a 4-byte offset slot
const maxDirectOffset = largeOffsetFlag - 1

// Encode writes a version 2 pack index for the given entries to out and
// returns the trailing index checksum. Entries may arrive in any order;
// they are written sorted by object identifier. packChecksum is the trailing
// checksum of the pack the entries belong to.
func Encode(out io.Writer, kind shared.HashKind, entries []Entry, packChecksum shared.ObjectID) (shared.ObjectID, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown hash kind %d", byte(kind))
	}
	width := kind.Width()
	if len(packChecksum) != width {
		return nil, fmt.Errorf("pack checksum must be %d bytes, got %d", width, len(packChecksum))
	}
	for _, e := range entries {
		if len(e.OID) != width {
			return nil, fmt.Errorf("object id must be %d bytes, got %d", width, len(e.OID))
		}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return shared.CompareIDs(sorted[i].OID, sorted[j].OID) < 0
	})

	hw := shared.NewHashWriter(out, kind)

	if _, err := hw.Write(magic); err != nil {
		return nil, err
	}
	if err := binary.Write(hw, binary.BigEndian, uint32(Version)); err != nil {
		return nil, err
	}

	var fanout [256]uint32
	for _, e := range sorted {
		fanout[e.OID[0]]++
	}
	for i := 1; i < 256; i++ {
		fanout[i] += fanout[i-1]
	}
	if err := binary.Write(hw, binary.BigEndian, fanout); err != nil {
		return nil, err
	}

	for _, e := range sorted {
		if _, err := hw.Write(e.OID); err != nil {
			return nil, err
		}
	}
	for _, e := range sorted {
		if err := binary.Write(hw, binary.BigEndian, e.CRC32); err != nil {
			return nil, err
		}
	}

	// offsets, diverting 64-bit values into the large offset table
	var large []uint64
	for _, e := range sorted {
		slot := uint32(e.Offset)
		if e.Offset > maxDirectOffset {
			slot = largeOffsetFlag | uint32(len(large))
			large = append(large, e.Offset)
		}
		if err := binary.Write(hw, binary.BigEndian, slot); err != nil {
			return nil, err
		}
	}
	for _, offset := range large {
		if err := binary.Write(hw, binary.BigEndian, offset); err != nil {
			return nil, err
		}
	}

	if _, err := hw.Write(packChecksum); err != nil {
		return nil, err
	}

	checksum := hw.Sum()
	if _, err := out.Write(checksum); err != nil {
		return nil, err
	}
	return checksum, nil
}

// WriteFile encodes the entries into a new pack index file at path.
func WriteFile(path string, kind shared.HashKind, entries []Entry, packChecksum shared.ObjectID) (shared.ObjectID, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	writer := bufio.NewWriter(file)
	checksum, err := Encode(writer, kind, entries, packChecksum)
	if err != nil {
		file.Close()
		return nil, err
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return nil, err
	}
	return checksum, file.Close()
}
