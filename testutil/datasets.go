package testutil

import (
	"slices"

	"github.com/hupe1980/vecproof/corpus"
)

// TrajectoryRows returns 40 distinct int32 rows of width 6 followed by three
// duplicated subranges of them, 60 rows in total.
func TrajectoryRows(seed int64) [][]int32 {
	base := NewRNG(seed).DistinctIntRows(40, 6, 0, 10)

	rows := slices.Clone(base)
	rows = append(rows, base[:10]...)
	rows = append(rows, base[5:10]...)
	rows = append(rows, base[30:35]...)
	return rows
}

// TrajectoryCorpus is TrajectoryRows as an Int32 corpus.
func TrajectoryCorpus(seed int64) *corpus.Corpus {
	return must(corpus.FromInt32(TrajectoryRows(seed)))
}

// Steady run boundaries injected by TelemetryRows: rows [start, end) are
// copies of row start.
var TelemetrySteadyRuns = [][2]int{{100, 150}, {300, 330}}

// TelemetryRows returns 500 Gaussian float32 rows of width 10 where the
// ranges in TelemetrySteadyRuns are held constant.
func TelemetryRows(seed int64) [][]float32 {
	rows := NewRNG(seed).GaussianVectors(500, 10)
	for _, run := range TelemetrySteadyRuns {
		for i := run[0] + 1; i < run[1]; i++ {
			rows[i] = slices.Clone(rows[run[0]])
		}
	}
	return rows
}

// TelemetryCorpus is TelemetryRows as a Float32 corpus.
func TelemetryCorpus(seed int64) *corpus.Corpus {
	return must(corpus.FromFloat32(TelemetryRows(seed)))
}

// FailureModes is the number of true clusters in FailureRows.
const FailureModes = 4

// FailureRows returns 4 modes x 25 noisy 16-d float32 vectors (noise 0.05
// around mutually orthogonal centroids of length 4) followed by exact copies
// of the first 10 rows: 110 rows in total.
func FailureRows(seed int64) [][]float32 {
	rng := NewRNG(seed)
	centroids := rng.OrthogonalCentroids(FailureModes, 16, 4)
	rows := rng.ClusteredVectors(centroids, 25, 0.05)

	for i := range 10 {
		rows = append(rows, slices.Clone(rows[i]))
	}
	return rows
}

// FailureCorpus is FailureRows as a Float32 corpus.
func FailureCorpus(seed int64) *corpus.Corpus {
	return must(corpus.FromFloat32(FailureRows(seed)))
}

func must(c *corpus.Corpus, err error) *corpus.Corpus {
	if err != nil {
		panic(err)
	}
	return c
}
