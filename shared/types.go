package shared

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

type HashKind byte

const (
	Sha1   HashKind = 1
	Sha256 HashKind = 2
)

func (k HashKind) Valid() bool {
	return k == Sha1 || k == Sha256
}

// Width is the size in bytes of an object identifier of this kind.
func (k HashKind) Width() int {
	if k == Sha256 {
		return sha256.Size
	}
	return sha1.Size
}

func (k HashKind) New() hash.Hash {
	if k == Sha256 {
		return sha256.New()
	}
	return sha1.New()
}

func (k HashKind) String() string {
	switch k {
	case Sha1:
		return "sha1"
	case Sha256:
		return "sha256"
	}
	return fmt.Sprintf("unknown(%d)", byte(k))
}

// ObjectID is a fixed-width binary object identifier, 20 or 32 bytes
// depending on the hash kind.
type ObjectID []byte

func (id ObjectID) String() string {
	return hex.EncodeToString(id)
}

func CompareIDs(a, b ObjectID) int {
	return bytes.Compare(a, b)
}
