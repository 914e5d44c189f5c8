package shared

import (
	"hash"
	"io"
)

// HashWriter forwards writes to an inner sink while feeding every byte that
// reached the sink into a rolling digest. Index files end in a checksum over
// all preceding content, so writers wrap their destination in one of these.
type HashWriter struct {
	inner io.Writer
	hash  hash.Hash
}

func NewHashWriter(w io.Writer, kind HashKind) *HashWriter {
	return &HashWriter{inner: w, hash: kind.New()}
}

func (w *HashWriter) Write(p []byte) (int, error) {
	n, err := w.inner.Write(p)
	w.hash.Write(p[:n])
	return n, err
}

// Sum returns the digest of everything written so far.
func (w *HashWriter) Sum() ObjectID {
	return w.hash.Sum(nil)
}
