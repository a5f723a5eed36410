package testutil

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
)

// RNG is a seeded, goroutine-safe source of synthetic dataset rows. Two RNGs
// with the same seed produce the same rows.
type RNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	s := uint64(seed)
	return &RNG{r: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// matrix fills n rows of width dim from next, holding the lock throughout so
// a single call is never interleaved with another.
func matrix[T any](g *RNG, n, dim int, next func(*rand.Rand) T) [][]T {
	g.mu.Lock()
	defer g.mu.Unlock()

	backing := make([]T, n*dim)
	rows := make([][]T, n)
	for i := range rows {
		row := backing[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range row {
			row[j] = next(g.r)
		}
		rows[i] = row
	}
	return rows
}

// GaussianVectors returns n float32 rows of width dim drawn from N(0, 1).
func (g *RNG) GaussianVectors(n, dim int) [][]float32 {
	return matrix(g, n, dim, func(r *rand.Rand) float32 { return float32(r.NormFloat64()) })
}

// IntRows returns n int32 rows of width dim drawn uniformly from [lo, hi).
func (g *RNG) IntRows(n, dim int, lo, hi int32) [][]int32 {
	return matrix(g, n, dim, func(r *rand.Rand) int32 { return lo + r.Int32N(hi-lo) })
}

// DistinctIntRows is IntRows without repeated rows. The value space
// (hi-lo)^dim must hold at least n rows or the call never returns.
func (g *RNG) DistinctIntRows(n, dim int, lo, hi int32) [][]int32 {
	rows := make([][]int32, 0, n)
	seen := make(map[string]struct{}, n)
	for len(rows) < n {
		for _, row := range g.IntRows(n-len(rows), dim, lo, hi) {
			key := string(int32Key(row))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rows = append(rows, row)
		}
	}
	return rows
}

func int32Key(row []int32) []byte {
	b := make([]byte, 0, 4*len(row))
	for _, v := range row {
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return b
}

// OrthogonalCentroids returns k pairwise orthogonal float32 vectors of width
// dim and Euclidean norm length, built by Gram-Schmidt over Gaussian draws.
// k must not exceed dim.
func (g *RNG) OrthogonalCentroids(k, dim int, length float64) [][]float32 {
	basis := make([][]float64, 0, k)
	for len(basis) < k {
		v := matrix(g, 1, dim, func(r *rand.Rand) float64 { return r.NormFloat64() })[0]
		for _, b := range basis {
			dot := dot64(v, b)
			for j := range v {
				v[j] -= dot * b[j]
			}
		}
		norm := math.Sqrt(dot64(v, v))
		if norm < 1e-9 {
			continue
		}
		for j := range v {
			v[j] /= norm
		}
		basis = append(basis, v)
	}

	out := make([][]float32, k)
	for i, b := range basis {
		out[i] = make([]float32, dim)
		for j, x := range b {
			out[i][j] = float32(x * length)
		}
	}
	return out
}

func dot64(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// ClusteredVectors returns perCluster rows around each centroid, grouped in
// centroid order, each perturbed by Gaussian noise scaled by spread.
func (g *RNG) ClusteredVectors(centroids [][]float32, perCluster int, spread float32) [][]float32 {
	rows := make([][]float32, 0, len(centroids)*perCluster)
	for _, c := range centroids {
		noise := g.GaussianVectors(perCluster, len(c))
		for _, row := range noise {
			for j := range row {
				row[j] = c[j] + row[j]*spread
			}
			rows = append(rows, row)
		}
	}
	return slices.Clip(rows)
}
