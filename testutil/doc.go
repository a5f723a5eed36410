// Package testutil provides deterministic corpus generators for tests,
// benchmarks and the CLI "generate" command.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	rows := rng.GaussianVectors(500, 10)
//	ints := rng.DistinctIntRows(40, 6, 0, 10)
//
// # Reference Datasets
//
//	traj := testutil.TrajectoryCorpus(7)   // 60 int32 rows, 40 distinct
//	tele := testutil.TelemetryCorpus(21)   // 500 float32 rows with steady runs
//	fail := testutil.FailureCorpus(11)     // 110 float32 rows, 4 modes
package testutil
