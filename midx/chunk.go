package midx

import (
	"encoding/binary"
	"io"

	"github.com/AmrMurad1/Pack-Store/shared"
)

const fanoutChunkSize = 256 * 4

func namesChunkSize(names []string) uint64 {
	var size uint64
	for _, name := range names {
		size += uint64(len(name)) + 1 // trailing NUL
	}
	return size
}

func lookupChunkSize(numEntries int, kind shared.HashKind) uint64 {
	return uint64(numEntries) * uint64(kind.Width())
}

func offsetsChunkSize(numEntries int) uint64 {
	// 4-byte pack ordinal + 4-byte offset slot per entry
	return uint64(numEntries) * 8
}

func largeOffsetsChunkSize(numLargeOffsets int) uint64 {
	return uint64(numLargeOffsets) * 8
}

func needsLargeOffset(offset uint64) bool {
	return offset > maxDirectOffset
}

func countLargeOffsets(entries []entry) int {
	count := 0
	for _, e := range entries {
		if needsLargeOffset(e.packOffset) {
			count++
		}
	}
	return count
}

// writeNames writes each index file name followed by a single NUL, in
// sorted path order.
func writeNames(out io.Writer, names []string) error {
	for _, name := range names {
		if _, err := io.WriteString(out, name); err != nil {
			return err
		}
		if _, err := out.Write([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}

// writeFanout writes 256 cumulative counts; slot b holds the number of
// entries whose identifier's first byte is <= b.
func writeFanout(out io.Writer, entries []entry) error {
	var fanout [256]uint32
	for _, e := range entries {
		fanout[e.id[0]]++
	}
	for i := 1; i < 256; i++ {
		fanout[i] += fanout[i-1]
	}
	return binary.Write(out, binary.BigEndian, fanout)
}

// writeLookup writes the sorted identifiers back to back.
func writeLookup(out io.Writer, entries []entry) error {
	for _, e := range entries {
		if _, err := out.Write(e.id); err != nil {
			return err
		}
	}
	return nil
}

// writeOffsets writes one record per entry: the pack ordinal, then either
// the offset itself or, high bit set, the entry's index into the large
// offset chunk. Indices are assigned by encounter order, which is the same
// order writeLargeOffsets traverses.
func writeOffsets(out io.Writer, entries []entry) error {
	var record [8]byte
	var largeIdx uint32
	for _, e := range entries {
		binary.BigEndian.PutUint32(record[0:4], e.packIndex)
		if needsLargeOffset(e.packOffset) {
			binary.BigEndian.PutUint32(record[4:8], largeOffsetFlag|largeIdx)
			largeIdx++
		} else {
			binary.BigEndian.PutUint32(record[4:8], uint32(e.packOffset))
		}
		if _, err := out.Write(record[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeLargeOffsets(out io.Writer, entries []entry) error {
	var record [8]byte
	for _, e := range entries {
		if !needsLargeOffset(e.packOffset) {
			continue
		}
		binary.BigEndian.PutUint64(record[:], e.packOffset)
		if _, err := out.Write(record[:]); err != nil {
			return err
		}
	}
	return nil
}
