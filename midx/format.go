package midx

import "github.com/AmrMurad1/Pack-Store/chunkfile"

const (
	Signature = "MIDX"
	Version   = 1

	// signature + version + hash kind + chunk count + base files + pack count
	headerSize = 4 + 1 + 1 + 1 + 1 + 4

	// the largest pack offset storable directly in a 4-byte offset slot;
	// anything above is diverted into the large offset chunk
	maxDirectOffset = 1<<31 - 1

	largeOffsetFlag = uint32(1) << 31
)

var (
	chunkPackNames    = chunkfile.ID{'P', 'N', 'A', 'M'}
	chunkFanout       = chunkfile.ID{'O', 'I', 'D', 'F'}
	chunkLookup       = chunkfile.ID{'O', 'I', 'D', 'L'}
	chunkOffsets      = chunkfile.ID{'O', 'O', 'F', 'F'}
	chunkLargeOffsets = chunkfile.ID{'L', 'O', 'F', 'F'}
)

// chunkOrder fixes the on-disk chunk sequence. Readers rely on this order,
// so both the planner and the dispatcher walk this table rather than
// carrying their own copy of it. The large offset chunk is planned only
// when some entry needs it.
var chunkOrder = []chunkfile.ID{
	chunkPackNames,
	chunkFanout,
	chunkLookup,
	chunkOffsets,
	chunkLargeOffsets,
}
