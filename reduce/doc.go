// Package reduce implements lossless exact-duplicate reduction of a corpus.
//
// Two strategies are provided:
//
//   - Unique: whole-set deduplication. Produces the set of distinct rows
//     plus an inverse index so that expanded[i] == unique[inverse[i]].
//   - Consecutive: run-length deduplication. Keeps row 0 and every row
//     that differs from its immediate predecessor. Non-adjacent duplicates
//     are kept on purpose: this models contiguous steady-state runs.
//
// Both return a *Reduction whose Map is a tagged variant (KindInverseIndex
// or KindKeptIndices). Expand inverts either variant and reproduces the
// original corpus byte for byte.
//
// # Unique Set Order
//
// The order of the unique set is observable in the inverse index and in
// every stored artifact, so it is an explicit option:
//
//   - FirstSeen (default): distinct rows in order of first occurrence.
//   - Sorted: distinct rows in ascending lexicographic value order
//     (NumPy unique(axis=0) compatible).
//
// # Usage
//
//	r, err := reduce.Unique(c, reduce.WithOrder(reduce.Sorted))
//	expanded, err := reduce.Expand(r)
package reduce
