package cluster

import (
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"
)

// lshIndex buckets vectors by random-hyperplane signatures. Two vectors are
// candidates if they share a bucket in at least one table.
type lshIndex struct {
	signatures [][]uint64                   // [table][row]
	buckets    []map[uint64]*roaring.Bitmap // [table][signature]
}

func newLSHIndex(vecs [][]float64, dim int, cfg lshConfig) *lshIndex {
	tables := max(cfg.tables, 1)
	bits := min(max(cfg.bits, 1), 64)
	rng := rand.New(rand.NewSource(cfg.seed))

	idx := &lshIndex{
		signatures: make([][]uint64, tables),
		buckets:    make([]map[uint64]*roaring.Bitmap, tables),
	}

	for t := range tables {
		planes := make([][]float64, bits)
		for b := range planes {
			planes[b] = make([]float64, dim)
			for d := range planes[b] {
				planes[b][d] = rng.NormFloat64()
			}
		}

		sigs := make([]uint64, len(vecs))
		buckets := make(map[uint64]*roaring.Bitmap)
		for i, v := range vecs {
			sig := signature(v, planes)
			sigs[i] = sig
			bm, ok := buckets[sig]
			if !ok {
				bm = roaring.New()
				buckets[sig] = bm
			}
			bm.Add(uint32(i))
		}
		idx.signatures[t] = sigs
		idx.buckets[t] = buckets
	}

	return idx
}

// signature sets bit b when v lies on the non-negative side of plane b.
func signature(v []float64, planes [][]float64) uint64 {
	var sig uint64
	for b, p := range planes {
		var dot float64
		for d := range v {
			dot += v[d] * p[d]
		}
		if dot >= 0 {
			sig |= 1 << uint(b)
		}
	}
	return sig
}

// candidates returns the union of the buckets containing row i.
func (x *lshIndex) candidates(i int) *roaring.Bitmap {
	shared := make([]*roaring.Bitmap, 0, len(x.buckets))
	for t, buckets := range x.buckets {
		shared = append(shared, buckets[x.signatures[t][i]])
	}
	return roaring.FastOr(shared...)
}
