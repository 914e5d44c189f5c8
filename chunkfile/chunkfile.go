package chunkfile

// A chunked file is a fixed header followed by a table of contents and the
// chunk payloads themselves. The table of contents holds one record per
// chunk: a 4-byte identifier and the chunk's absolute 8-byte big-endian
// offset within the file, terminated by a record with a zero identifier
// whose offset marks the end of the last chunk.

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const TocEntrySize = 12

// ID identifies a chunk type, e.g. "OIDL".
type ID [4]byte

func (id ID) String() string {
	return string(id[:])
}

type plannedChunk struct {
	id   ID
	size uint64
}

// Planner accumulates the chunks of a file to be written, in the order they
// will appear on disk, before any bytes are produced.
type Planner struct {
	chunks []plannedChunk
}

func NewPlanner() *Planner {
	return &Planner{}
}

func (p *Planner) Plan(id ID, size uint64) {
	p.chunks = append(p.chunks, plannedChunk{id: id, size: size})
}

func (p *Planner) NumChunks() int {
	return len(p.chunks)
}

// TableSize is the byte size of the table of contents, terminator included.
func (p *Planner) TableSize() uint64 {
	return uint64(len(p.chunks)+1) * TocEntrySize
}

// IntoWrite emits the table of contents to out and returns a Writer through
// which the caller produces each chunk's payload. headerLen is the number of
// bytes already written before the table.
func (p *Planner) IntoWrite(out io.Writer, headerLen int) (*Writer, error) {
	offset := uint64(headerLen) + p.TableSize()
	var record [TocEntrySize]byte
	for _, c := range p.chunks {
		copy(record[0:4], c.id[:])
		binary.BigEndian.PutUint64(record[4:], offset)
		if _, err := out.Write(record[:]); err != nil {
			return nil, err
		}
		offset += c.size
	}
	copy(record[0:4], []byte{0, 0, 0, 0})
	binary.BigEndian.PutUint64(record[4:], offset)
	if _, err := out.Write(record[:]); err != nil {
		return nil, err
	}

	return &Writer{out: out, chunks: p.chunks}, nil
}

// Writer hands out planned chunk identifiers one at a time and enforces that
// each chunk's payload is exactly the planned size.
type Writer struct {
	out     io.Writer
	chunks  []plannedChunk
	next    int
	written uint64
}

// NextChunk returns the identifier of the next chunk to write. It refuses to
// advance while the current chunk is short of its planned size; Close
// reports the mismatch.
func (w *Writer) NextChunk() (ID, bool) {
	if w.next > 0 && w.written != w.chunks[w.next-1].size {
		return ID{}, false
	}
	if w.next == len(w.chunks) {
		return ID{}, false
	}
	id := w.chunks[w.next].id
	w.next++
	w.written = 0
	return id, true
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.next == 0 {
		return 0, errors.New("chunkfile: write before first chunk")
	}
	c := w.chunks[w.next-1]
	if w.written+uint64(len(p)) > c.size {
		return 0, fmt.Errorf("chunkfile: chunk %q exceeds planned size of %d bytes", c.id, c.size)
	}
	n, err := w.out.Write(p)
	w.written += uint64(n)
	return n, err
}

// Close verifies that every planned chunk was written in full.
func (w *Writer) Close() error {
	if w.next > 0 {
		if c := w.chunks[w.next-1]; w.written != c.size {
			return fmt.Errorf("chunkfile: chunk %q wrote %d of %d planned bytes", c.id, w.written, c.size)
		}
	}
	if w.next < len(w.chunks) {
		return fmt.Errorf("chunkfile: %d chunk(s) left unwritten", len(w.chunks)-w.next)
	}
	return nil
}
