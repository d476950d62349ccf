package cpd

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Supported window hash algorithms.
const (
	HashXXHash = "xxhash"
	HashBLAKE3 = "blake3"
)

// WindowHash is a 128-bit digest of one window of signature records.
//
// With n indexed windows the chance that any two distinct windows collide
// is roughly n²/2¹²⁹. Even 10⁹ windows stay below 10⁻²⁰, so spurious
// duplicates from collisions are negligible; they are not detected.
type WindowHash struct {
	Hi uint64
	Lo uint64
}

func (h WindowHash) String() string {
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo)
}

// Hasher digests windows. Implementations are not safe for concurrent use.
type Hasher interface {
	Sum(window []byte) WindowHash
	Name() string
}

// NewHasher returns the hasher registered under name. An empty name selects
// xxhash.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", HashXXHash:
		return newXXHasher(), nil
	case HashBLAKE3:
		return blake3Hasher{}, nil
	default:
		return nil, invalid(fmt.Sprintf("unknown hash algorithm %q", name))
	}
}

// xxHasher combines two xxhash sums: the plain window and the window behind
// a fixed salt.
type xxHasher struct {
	d *xxhash.Digest
}

var xxSalt = []byte("cpd/window")

func newXXHasher() *xxHasher {
	return &xxHasher{d: xxhash.New()}
}

func (x *xxHasher) Sum(window []byte) WindowHash {
	x.d.Reset()
	_, _ = x.d.Write(xxSalt)
	_, _ = x.d.Write(window)
	return WindowHash{Hi: x.d.Sum64(), Lo: xxhash.Sum64(window)}
}

func (x *xxHasher) Name() string { return HashXXHash }

type blake3Hasher struct{}

func (blake3Hasher) Sum(window []byte) WindowHash {
	sum := blake3.Sum256(window)
	return WindowHash{
		Hi: binary.BigEndian.Uint64(sum[0:8]),
		Lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}

func (blake3Hasher) Name() string { return HashBLAKE3 }

// Windows calls fn for every window start i in [0, n-w] of sig, in order.
// Signatures shorter than w produce no calls. Returning false stops early.
func Windows(sig Signature, w int, h Hasher, fn func(i int, hash WindowHash) bool) {
	n := sig.NumWindows(w)
	for i := 0; i < n; i++ {
		if !fn(i, h.Sum(sig.Window(i, w))) {
			return
		}
	}
}
