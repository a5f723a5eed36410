package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/distance"
)

var (
	// ErrNilCorpus is returned when a nil corpus is passed.
	ErrNilCorpus = errors.New("nil corpus")

	// ErrTooLarge is returned when a corpus has more rows than a 32-bit
	// index can address.
	ErrTooLarge = errors.New("corpus too large for clustering")

	// ErrInvalidResult is returned when a Result does not partition its
	// index range.
	ErrInvalidResult = errors.New("invalid cluster result")
)

// Metric is the similarity metric used by Greedy.
const Metric = distance.MetricCosine

// ThresholdInRange reports whether t is a meaningful cosine threshold,
// i.e. within [-1, 1]. Out-of-range thresholds are accepted by Greedy.
func ThresholdInRange(t float64) bool {
	return !math.IsNaN(t) && t >= -1 && t <= 1
}

// Cluster is one group of the partition.
type Cluster struct {
	// Representative is the index that started the cluster.
	Representative int `json:"rep"`
	// Members are sorted ascending and include the representative.
	Members []int `json:"members"`
}

// Result is the heuristic output of Greedy.
type Result struct {
	// Representatives in ascending discovery order.
	Representatives []int
	// Assignment[i] is the representative owning index i.
	Assignment []int
	// Threshold used for the scan.
	Threshold float64
	// Approximate is true when candidates were narrowed by LSH.
	Approximate bool
}

// Len returns the number of clustered indices.
func (r *Result) Len() int { return len(r.Assignment) }

// NumModes returns the number of clusters.
func (r *Result) NumModes() int { return len(r.Representatives) }

// Ratio returns clusters divided by inputs. An empty input has ratio 1.
func (r *Result) Ratio() float64 {
	if len(r.Assignment) == 0 {
		return 1
	}
	return float64(len(r.Representatives)) / float64(len(r.Assignment))
}

// Clusters groups Assignment into clusters ordered by representative.
func (r *Result) Clusters() []Cluster {
	pos := make(map[int]int, len(r.Representatives))
	out := make([]Cluster, len(r.Representatives))
	for i, rep := range r.Representatives {
		pos[rep] = i
		out[i].Representative = rep
	}
	for idx, rep := range r.Assignment {
		p, ok := pos[rep]
		if !ok {
			continue
		}
		out[p].Members = append(out[p].Members, idx)
	}
	return out
}

// Modes gathers the representative rows of c.
func (r *Result) Modes(c *corpus.Corpus) (*corpus.Corpus, error) {
	return c.Gather(r.Representatives)
}

// Validate checks the partition invariants: representatives are strictly
// increasing, own themselves, and every index is assigned to an earlier or
// equal representative.
func (r *Result) Validate() error {
	n := len(r.Assignment)
	isRep := make(map[int]bool, len(r.Representatives))
	for i, rep := range r.Representatives {
		if rep < 0 || rep >= n {
			return fmt.Errorf("%w: representative %d outside [0,%d)", ErrInvalidResult, rep, n)
		}
		if i > 0 && rep <= r.Representatives[i-1] {
			return fmt.Errorf("%w: representatives not strictly increasing at %d", ErrInvalidResult, i)
		}
		if r.Assignment[rep] != rep {
			return fmt.Errorf("%w: representative %d assigned to %d", ErrInvalidResult, rep, r.Assignment[rep])
		}
		isRep[rep] = true
	}
	for i, rep := range r.Assignment {
		if !isRep[rep] {
			return fmt.Errorf("%w: index %d assigned to non-representative %d", ErrInvalidResult, i, rep)
		}
		if rep > i {
			return fmt.Errorf("%w: index %d assigned to later representative %d", ErrInvalidResult, i, rep)
		}
	}
	return nil
}

// Greedy clusters c by cosine similarity >= threshold.
func Greedy(c *corpus.Corpus, threshold float64, optFns ...Option) (*Result, error) {
	if c == nil {
		return nil, ErrNilCorpus
	}
	if uint64(c.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d rows", ErrTooLarge, c.Len())
	}
	opts := applyOptions(optFns)

	s := newScanner(c, threshold, opts)
	acc := newAccumulator(c.Len())

	for !acc.unassigned.IsEmpty() {
		rep := int(acc.unassigned.Minimum())
		acc.open(rep)

		candidates := acc.unassigned
		if s.index != nil {
			candidates = roaring.And(acc.unassigned, s.index.candidates(rep))
		}
		if candidates.IsEmpty() {
			continue
		}

		for _, j := range s.match(rep, candidates.ToArray()) {
			acc.assign(int(j), rep)
		}
	}

	return acc.result(threshold, s.index != nil), nil
}

// accumulator owns the mutable state of one scan.
type accumulator struct {
	unassigned *roaring.Bitmap
	assignment []int
	reps       []int
}

func newAccumulator(n int) *accumulator {
	unassigned := roaring.New()
	unassigned.AddRange(0, uint64(n))
	return &accumulator{
		unassigned: unassigned,
		assignment: make([]int, n),
	}
}

func (a *accumulator) open(rep int) {
	a.unassigned.Remove(uint32(rep))
	a.assignment[rep] = rep
	a.reps = append(a.reps, rep)
}

func (a *accumulator) assign(idx, rep int) {
	a.unassigned.Remove(uint32(idx))
	a.assignment[idx] = rep
}

func (a *accumulator) result(threshold float64, approximate bool) *Result {
	reps := a.reps
	if reps == nil {
		reps = []int{}
	}
	return &Result{
		Representatives: reps,
		Assignment:      a.assignment,
		Threshold:       threshold,
		Approximate:     approximate,
	}
}

// scanner holds the read-only widened corpus and the comparison strategy.
type scanner struct {
	vecs      [][]float64
	norms     []float64
	threshold float64
	workers   int
	cutoff    int
	index     *lshIndex
}

func newScanner(c *corpus.Corpus, threshold float64, opts options) *scanner {
	vecs := c.Float64Rows()
	norms := make([]float64, len(vecs))
	for i, v := range vecs {
		norms[i] = distance.Norm(v)
	}

	s := &scanner{
		vecs:      vecs,
		norms:     norms,
		threshold: threshold,
		workers:   max(opts.workers, 1),
		cutoff:    max(opts.parallelCutoff, 1),
	}
	if opts.lsh != nil {
		s.index = newLSHIndex(vecs, c.Dim(), *opts.lsh)
	}
	return s
}

func (s *scanner) similar(rep, j int) bool {
	return distance.CosineWithNorms(s.vecs[rep], s.vecs[j], s.norms[rep], s.norms[j]) >= s.threshold
}

// match returns the candidates similar to rep, in ascending order.
func (s *scanner) match(rep int, candidates []uint32) []uint32 {
	if s.workers <= 1 || len(candidates) < s.cutoff {
		var out []uint32
		for _, j := range candidates {
			if s.similar(rep, int(j)) {
				out = append(out, j)
			}
		}
		return out
	}

	hits := make([]bool, len(candidates))
	chunk := (len(candidates) + s.workers - 1) / s.workers

	var g errgroup.Group
	g.SetLimit(s.workers)
	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			for k := start; k < end; k++ {
				hits[k] = s.similar(rep, int(candidates[k]))
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []uint32
	for k, hit := range hits {
		if hit {
			out = append(out, candidates[k])
		}
	}
	return out
}
