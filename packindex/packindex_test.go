package packindex

import (
	"bytes"
	"crypto/sha1"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrMurad1/Pack-Store/shared"
)

func testOID(b ...byte) shared.ObjectID {
	id := make(shared.ObjectID, sha1.Size)
	copy(id, b)
	return id
}

func TestRoundTrip(t *testing.T) {
	packChecksum := testOID(0xee)
	entries := []Entry{
		{OID: testOID(0x30), Offset: 12, CRC32: 111},
		{OID: testOID(0x10), Offset: 1<<31 + 7, CRC32: 222}, // needs the large table
		{OID: testOID(0x20), Offset: 1<<31 - 1, CRC32: 333}, // largest direct offset
	}

	path := filepath.Join(t.TempDir(), "test.idx")
	checksum, err := WriteFile(path, shared.Sha1, entries, packChecksum)
	require.NoError(t, err)
	require.Len(t, checksum, sha1.Size)

	f, err := Open(path, shared.Sha1)
	require.NoError(t, err)

	assert.EqualValues(t, 3, f.NumObjects())
	assert.Equal(t, shared.Sha1, f.HashKind())
	assert.Equal(t, packChecksum, f.PackChecksum())
	assert.Equal(t, checksum, f.Checksum())

	// entries come back sorted by identifier
	var got []Entry
	for e := range f.Entries() {
		got = append(got, e)
	}
	require.Len(t, got, 3)
	assert.Equal(t, testOID(0x10), got[0].OID)
	assert.EqualValues(t, 1<<31+7, got[0].Offset)
	assert.EqualValues(t, 222, got[0].CRC32)
	assert.Equal(t, testOID(0x20), got[1].OID)
	assert.EqualValues(t, 1<<31-1, got[1].Offset)
	assert.Equal(t, testOID(0x30), got[2].OID)
	assert.EqualValues(t, 12, got[2].Offset)
}

func TestChecksumCoversContent(t *testing.T) {
	var buf bytes.Buffer
	checksum, err := Encode(&buf, shared.Sha1, []Entry{{OID: testOID(0x42), Offset: 9}}, testOID(0))
	require.NoError(t, err)

	data := buf.Bytes()
	sum := sha1.Sum(data[:len(data)-sha1.Size])
	assert.Equal(t, shared.ObjectID(sum[:]), checksum)
	assert.Equal(t, sum[:], data[len(data)-sha1.Size:])
}

func TestEncodeValidatesInput(t *testing.T) {
	var buf bytes.Buffer

	_, err := Encode(&buf, shared.Sha1, nil, shared.ObjectID{1, 2, 3})
	assert.ErrorContains(t, err, "pack checksum")

	_, err = Encode(&buf, shared.Sha1, []Entry{{OID: shared.ObjectID{1}}}, testOID(0))
	assert.ErrorContains(t, err, "object id")
}

func TestParseRejectsCorruptFiles(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(&buf, shared.Sha1, []Entry{{OID: testOID(0x42), Offset: 9}}, testOID(0))
	require.NoError(t, err)
	good := buf.Bytes()

	_, err = parse(good, shared.Sha1)
	require.NoError(t, err)

	bad := bytes.Clone(good)
	bad[0] = 'x'
	_, err = parse(bad, shared.Sha1)
	assert.ErrorContains(t, err, "magic")

	bad = bytes.Clone(good)
	bad[7] = 3
	_, err = parse(bad, shared.Sha1)
	assert.ErrorContains(t, err, "version")

	_, err = parse(good[:50], shared.Sha1)
	assert.ErrorContains(t, err, "truncated")

	// fanout counts must never decrease
	bad = bytes.Clone(good)
	bad[headerSize+3] = 9
	_, err = parse(bad, shared.Sha1)
	assert.ErrorContains(t, err, "fanout")
}
