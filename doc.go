// Package vecproof reduces vector corpora and proves the reductions.
//
// A corpus is an ordered set of fixed-dimension numeric rows backed by its
// exact little-endian byte serialization. vecproof offers two lossless
// reductions, exact deduplication (reduce.Unique) and run-length
// deduplication (reduce.Consecutive), plus a heuristic greedy
// near-duplicate clustering (cluster.Greedy). Every stage is
// fingerprinted, and a lossless reduction can be re-expanded and proven
// byte-equal to its original (provenance.Verify).
//
// # Quick Start
//
//	ctx := context.Background()
//	e := vecproof.New(vecproof.WithLogger(vecproof.NewTextLogger(slog.LevelInfo)))
//
//	c, _ := corpus.FromFloat32(rows)
//	r, rec, err := e.ReduceAndVerify(ctx, c, reduce.KindInverseIndex)
//	if err != nil {
//	    // errors.Is(err, vecproof.ErrVerificationFailed) on a mismatch
//	}
//	fmt.Println(rec.Original, rec.Ratio)
//
// Heuristic clustering never claims losslessness:
//
//	res, _ := e.Cluster(ctx, c, 0.95, cluster.WithWorkers(8))
//	report, _ := e.Report(ctx, c, res)
//	fmt.Println(report.UniqueModes, report.Heuristic) // always true
//
// # Persistence
//
// Reductions and cluster results are stored as self-describing artifacts
// (package archive) on any blobstore.Store; provenance documents are written
// by package manifest and indexed by package ledger. The vecproof command
// (cmd/vecproof) drives all of it from .npy files.
package vecproof
