package reduce

import (
	"fmt"
	"slices"

	"github.com/hupe1980/vecproof/corpus"
)

// Unique removes exact duplicate rows from c.
//
// Rows are keyed by their exact bytes, so two rows are duplicates only if
// they are byte-identical. The returned unique set follows the configured
// Order; the inverse index always satisfies
// Reduced.Row(Inverse[i]) == c.Row(i).
func Unique(c *corpus.Corpus, optFns ...Option) (*Reduction, error) {
	if c == nil {
		return nil, ErrNilCorpus
	}
	opts := applyOptions(optFns)

	n := c.Len()
	inverse := make([]int, n)
	slots := make(map[string]int)
	var firsts []int // original index of each unique row, by slot

	for i := range n {
		row := c.Row(i)
		if slot, ok := slots[string(row)]; ok {
			inverse[i] = slot
			continue
		}
		slot := len(firsts)
		slots[string(row)] = slot
		firsts = append(firsts, i)
		inverse[i] = slot
	}

	if opts.order == Sorted {
		firsts, inverse = sortUnique(c, firsts, inverse)
	}

	reduced, err := c.Gather(firsts)
	if err != nil {
		return nil, err
	}

	return &Reduction{
		Reduced: reduced,
		Map: Map{
			Kind:        KindInverseIndex,
			Order:       opts.order,
			Inverse:     inverse,
			OriginalLen: n,
		},
	}, nil
}

// sortUnique reorders the unique slots by row value and remaps inverse.
func sortUnique(c *corpus.Corpus, firsts, inverse []int) ([]int, []int) {
	perm := make([]int, len(firsts))
	for i := range perm {
		perm[i] = i
	}
	slices.SortFunc(perm, func(a, b int) int {
		return c.CompareRows(firsts[a], firsts[b])
	})

	rank := make([]int, len(perm))
	sorted := make([]int, len(perm))
	for pos, slot := range perm {
		rank[slot] = pos
		sorted[pos] = firsts[slot]
	}
	for i, slot := range inverse {
		inverse[i] = rank[slot]
	}
	return sorted, inverse
}

// Consecutive removes rows equal to their immediate predecessor.
//
// Row 0 is always kept; row i is kept iff it differs from row i-1.
func Consecutive(c *corpus.Corpus) (*Reduction, error) {
	if c == nil {
		return nil, ErrNilCorpus
	}

	n := c.Len()
	var kept []int
	if n > 0 {
		kept = append(kept, 0)
	}
	for i := 1; i < n; i++ {
		if !c.RowEqual(i, i-1) {
			kept = append(kept, i)
		}
	}

	reduced, err := c.Gather(kept)
	if err != nil {
		return nil, err
	}

	return &Reduction{
		Reduced: reduced,
		Map: Map{
			Kind:        KindKeptIndices,
			Kept:        kept,
			OriginalLen: n,
		},
	}, nil
}

// Expand reconstructs the original corpus from a reduction.
func Expand(r *Reduction) (*corpus.Corpus, error) {
	if r == nil || r.Reduced == nil {
		return nil, ErrNilCorpus
	}
	if err := r.Map.Validate(r.Reduced.Len()); err != nil {
		return nil, err
	}

	switch r.Map.Kind {
	case KindInverseIndex:
		return r.Reduced.Gather(r.Map.Inverse)
	case KindKeptIndices:
		return expandRuns(r.Reduced, r.Map.Kept, r.Map.OriginalLen)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidMap, uint8(r.Map.Kind))
	}
}

// expandRuns repeats reduced row m over [kept[m], kept[m+1]) and the last
// row through originalLen.
func expandRuns(reduced *corpus.Corpus, kept []int, originalLen int) (*corpus.Corpus, error) {
	b := corpus.NewBuilder(reduced.DType(), reduced.Dim(), originalLen)
	for m, start := range kept {
		end := originalLen
		if m+1 < len(kept) {
			end = kept[m+1]
		}
		if err := b.AppendRepeated(reduced.Row(m), end-start); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
