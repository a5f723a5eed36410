// Package cluster groups near-duplicate vectors with a greedy, first-fit
// cosine-similarity threshold scan.
//
// The scan visits indices in ascending order. Each index not yet assigned
// becomes the representative of a new cluster and claims every later
// unassigned index whose similarity to it is >= threshold. Clusters are
// never merged and assigned indices are never revisited.
//
// The result is heuristic and NOT lossless: a Result is deliberately a
// different type from reduce.Reduction so it cannot be expanded or verified
// as a round-trip-safe artifact.
//
// # Determinism and Order Sensitivity
//
// For a fixed input order and threshold the output is fully deterministic.
// It is, however, sensitive to input order: earlier vectors capture later
// similar ones, so a permutation of the same corpus can produce different
// representatives and a different number of clusters.
//
// # Thresholds
//
// Any threshold is accepted. Values outside [-1, 1] still resolve (above 1
// every vector becomes its own cluster, below -1 everything is claimed by
// the first representative) but are almost certainly a caller mistake; see
// ThresholdInRange.
//
// # Scaling
//
// The exact scan is O(n^2) similarity evaluations. Two options help:
//
//   - WithWorkers(n) evaluates one representative's candidates in parallel
//     and applies assignments afterwards in index order. Output is identical
//     to the sequential scan.
//   - WithLSH(tables, bits, seed) narrows candidates with random-hyperplane
//     buckets before computing exact cosine. Vectors that land in no shared
//     bucket are never compared, so the result is an approximation and is
//     marked Approximate. Exact duplicates always share buckets.
package cluster
