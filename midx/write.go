package midx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AmrMurad1/Pack-Store/chunkfile"
	"github.com/AmrMurad1/Pack-Store/packindex"
	"github.com/AmrMurad1/Pack-Store/progress"
	"github.com/AmrMurad1/Pack-Store/shared"
)

var (
	// ErrInterrupted reports that the shared interrupt flag was observed
	// set. It is checked only between index files during collection.
	ErrInterrupted = errors.New("multi-pack index write interrupted")

	// ErrOpenIndex wraps the failure to open or parse a source pack index.
	ErrOpenIndex = errors.New("failed to open pack index")
)

type Options struct {
	HashKind shared.HashKind

	// CollectWorkers > 1 collects entries from that many index files at
	// once. Entries are spliced back in pack-ordinal order, so the output
	// bytes do not depend on this setting.
	CollectWorkers int
}

type Outcome struct {
	// Checksum is the trailing content checksum of the written file.
	Checksum shared.ObjectID
	Progress progress.Progress
}

// entry is one object's location record before deduplication.
type entry struct {
	id         shared.ObjectID
	packIndex  uint32
	packOffset uint64
	indexMtime time.Time
}

// Write merges the given pack index files into one multi-pack index written
// to out. Pack ordinals are assigned by lexicographic path order. interrupt
// may be nil.
func Write(indexPaths []string, out io.Writer, p progress.Progress, interrupt *atomic.Bool, opts Options) (*Outcome, error) {
	kind := opts.HashKind
	if kind == 0 {
		kind = shared.Sha1
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown hash kind %d", byte(kind))
	}
	if len(indexPaths) == 0 {
		return nil, errors.New("no pack index paths given")
	}
	if p == nil {
		p = progress.Discard
	}

	// pack ordinals follow sorted path order; the bare file names go into
	// the name chunk at the same positions
	sortedPaths := make([]string, len(indexPaths))
	copy(sortedPaths, indexPaths)
	sort.Strings(sortedPaths)
	names := make([]string, len(sortedPaths))
	for i, path := range sortedPaths {
		names[i] = filepath.Base(path)
	}

	p.Begin("collecting entries", len(sortedPaths))
	var entries []entry
	var err error
	if opts.CollectWorkers > 1 {
		entries, err = collectParallel(sortedPaths, kind, p, interrupt, opts.CollectWorkers)
	} else {
		entries, err = collectSequential(sortedPaths, kind, p, interrupt)
	}
	if err != nil {
		return nil, err
	}
	p.End()

	p.Begin("deduplicating entries", len(entries))
	entries = sortAndDedup(entries)
	p.End()

	planner := chunkfile.NewPlanner()
	numLarge := countLargeOffsets(entries)
	for _, id := range chunkOrder {
		switch id {
		case chunkPackNames:
			planner.Plan(id, namesChunkSize(names))
		case chunkFanout:
			planner.Plan(id, fanoutChunkSize)
		case chunkLookup:
			planner.Plan(id, lookupChunkSize(len(entries), kind))
		case chunkOffsets:
			planner.Plan(id, offsetsChunkSize(len(entries)))
		case chunkLargeOffsets:
			if numLarge > 0 {
				planner.Plan(id, largeOffsetsChunkSize(numLarge))
			}
		}
	}

	hw := shared.NewHashWriter(out, kind)
	if err := writeHeader(hw, byte(planner.NumChunks()), uint32(len(sortedPaths)), kind); err != nil {
		return nil, err
	}

	cw, err := planner.IntoWrite(hw, headerSize)
	if err != nil {
		return nil, err
	}
	for {
		id, ok := cw.NextChunk()
		if !ok {
			break
		}
		switch id {
		case chunkPackNames:
			err = writeNames(cw, names)
		case chunkFanout:
			err = writeFanout(cw, entries)
		case chunkLookup:
			err = writeLookup(cw, entries)
		case chunkOffsets:
			err = writeOffsets(cw, entries)
		case chunkLargeOffsets:
			err = writeLargeOffsets(cw, entries)
		default:
			panic(fmt.Sprintf("BUG: no writer for planned chunk %q", id))
		}
		if err != nil {
			return nil, err
		}
	}
	if err := cw.Close(); err != nil {
		return nil, err
	}

	checksum := hw.Sum()
	if _, err := out.Write(checksum); err != nil {
		return nil, err
	}

	return &Outcome{Checksum: checksum, Progress: p}, nil
}

func writeHeader(out io.Writer, numChunks byte, numPacks uint32, kind shared.HashKind) error {
	var header [headerSize]byte
	copy(header[0:4], Signature)
	header[4] = Version
	header[5] = byte(kind)
	header[6] = numChunks
	header[7] = 0 // number of base files, unused
	binary.BigEndian.PutUint32(header[8:], numPacks)
	_, err := out.Write(header[:])
	return err
}

func interrupted(flag *atomic.Bool) bool {
	return flag != nil && flag.Load()
}

// collectIndex reads every object record of one pack index. A missing mtime
// falls back to the epoch rather than failing the whole operation.
func collectIndex(path string, ordinal uint32, kind shared.HashKind) ([]entry, error) {
	mtime := time.Unix(0, 0)
	if stat, err := os.Stat(path); err == nil {
		mtime = stat.ModTime()
	}

	index, err := packindex.Open(path, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenIndex, err)
	}

	entries := make([]entry, 0, index.NumObjects())
	for e := range index.Entries() {
		entries = append(entries, entry{
			id:         e.OID,
			packIndex:  ordinal,
			packOffset: e.Offset,
			indexMtime: mtime,
		})
	}
	return entries, nil
}

func collectSequential(paths []string, kind shared.HashKind, p progress.Progress, interrupt *atomic.Bool) ([]entry, error) {
	var entries []entry
	for i, path := range paths {
		if interrupted(interrupt) {
			return nil, ErrInterrupted
		}
		collected, err := collectIndex(path, uint32(i), kind)
		if err != nil {
			return nil, err
		}
		entries = append(entries, collected...)
		p.Inc()
	}
	return entries, nil
}

// collectParallel reads index files concurrently. Each file's entries are
// independent until the merge sort, so only the splice order matters.
func collectParallel(paths []string, kind shared.HashKind, p progress.Progress, interrupt *atomic.Bool, workers int) ([]entry, error) {
	perPack := make([][]entry, len(paths))

	var group errgroup.Group
	group.SetLimit(workers)
	for i, path := range paths {
		group.Go(func() error {
			if interrupted(interrupt) {
				return ErrInterrupted
			}
			collected, err := collectIndex(path, uint32(i), kind)
			if err != nil {
				return err
			}
			perPack[i] = collected
			p.Inc()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, collected := range perPack {
		total += len(collected)
	}
	entries := make([]entry, 0, total)
	for _, collected := range perPack {
		entries = append(entries, collected...)
	}
	return entries, nil
}

// sortAndDedup orders entries by identifier, newest index mtime first, then
// lowest pack ordinal, and keeps the first entry of every identifier run.
// The surviving entry is the one from the most recently written pack.
func sortAndDedup(entries []entry) []entry {
	sort.Slice(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if c := shared.CompareIDs(a.id, b.id); c != 0 {
			return c < 0
		}
		if !a.indexMtime.Equal(b.indexMtime) {
			return a.indexMtime.After(b.indexMtime)
		}
		return a.packIndex < b.packIndex
	})

	deduped := entries[:0]
	for _, e := range entries {
		if len(deduped) > 0 && bytes.Equal(deduped[len(deduped)-1].id, e.id) {
			continue
		}
		deduped = append(deduped, e)
	}
	return deduped
}
