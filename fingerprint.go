package tapesort

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"

	"github.com/tamirms/tapesort/internal/encoding"
)

// Digest is an order-independent hash of a multiset of cells.
//
// Two stores holding the same values in any order produce equal digests.
// Each cell is hashed with two unrelated functions and the hashes are summed
// (mod 2^64), so a collision needs both lanes to collide at once.
type Digest struct {
	Count  int
	XXHash uint64
	Murmur uint64
}

// Fingerprint returns the multiset digest of the whole cells in data.
// Trailing bytes that do not form a full cell are ignored.
func Fingerprint(data []byte) Digest {
	var d Digest
	n := encoding.Cells(data)
	for i := range n {
		cell := data[i*encoding.CellSize : (i+1)*encoding.CellSize]
		d.XXHash += xxhash.Sum64(cell)
		d.Murmur += murmur3.Sum64(cell)
	}
	d.Count = n
	return d
}

// Merge combines digests of disjoint parts of one multiset.
func (d Digest) Merge(other Digest) Digest {
	return Digest{
		Count:  d.Count + other.Count,
		XXHash: d.XXHash + other.XXHash,
		Murmur: d.Murmur + other.Murmur,
	}
}
