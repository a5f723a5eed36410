package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/distance"
	"github.com/hupe1980/vecproof/testutil"
)

func mustFloat32(t *testing.T, rows [][]float32) *corpus.Corpus {
	t.Helper()
	c, err := corpus.FromFloat32(rows)
	require.NoError(t, err)
	return c
}

func requirePartition(t *testing.T, res *Result, n int) {
	t.Helper()
	require.NoError(t, res.Validate())

	seen := make([]int, n)
	for _, cl := range res.Clusters() {
		assert.Contains(t, cl.Members, cl.Representative)
		assert.IsIncreasing(t, cl.Members)
		for _, m := range cl.Members {
			seen[m]++
		}
	}
	for i, count := range seen {
		require.Equal(t, 1, count, "index %d", i)
	}
}

func TestGreedy_FailureScenario(t *testing.T) {
	c := testutil.FailureCorpus(11)
	require.Equal(t, 110, c.Len())

	res, err := Greedy(c, 0.95)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 25, 50, 75}, res.Representatives)
	assert.Equal(t, testutil.FailureModes, res.NumModes())
	assert.False(t, res.Approximate)
	requirePartition(t, res, 110)

	clusters := res.Clusters()
	require.Len(t, clusters, 4)
	assert.Len(t, clusters[0].Members, 35)
	for _, cl := range clusters[1:] {
		assert.Len(t, cl.Members, 25)
	}
	for i := 100; i < 110; i++ {
		assert.Equal(t, 0, res.Assignment[i])
	}

	modes, err := res.Modes(c)
	require.NoError(t, err)
	assert.Equal(t, 4, modes.Len())
	assert.InDelta(t, 4.0/110.0, res.Ratio(), 1e-12)
}

func TestGreedy_PartitionAcrossThresholds(t *testing.T) {
	c := mustFloat32(t, testutil.NewRNG(5).GaussianVectors(120, 8))

	for _, threshold := range []float64{-2, -1, -0.5, 0, 0.3, 0.9, 1, 1.5, math.NaN()} {
		res, err := Greedy(c, threshold)
		require.NoError(t, err)
		requirePartition(t, res, c.Len())
	}
}

func TestGreedy_ThresholdExtremes(t *testing.T) {
	c := mustFloat32(t, testutil.NewRNG(5).GaussianVectors(30, 4))

	res, err := Greedy(c, -1.5)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Representatives)

	res, err = Greedy(c, 1.5)
	require.NoError(t, err)
	assert.Len(t, res.Representatives, 30)

	assert.False(t, ThresholdInRange(1.5))
	assert.False(t, ThresholdInRange(math.NaN()))
	assert.True(t, ThresholdInRange(0.95))
	assert.True(t, ThresholdInRange(-1))
}

func TestGreedy_SelfSimilarity(t *testing.T) {
	c := testutil.FailureCorpus(11)
	for i := range c.Len() {
		v := c.Float64Row(i)
		assert.InDelta(t, 1.0, distance.Cosine(v, v), 1e-9)
	}

	// A representative always owns itself, even when the epsilon keeps
	// cosine strictly below 1.
	res, err := Greedy(c, 1.0)
	require.NoError(t, err)
	for _, rep := range res.Representatives {
		assert.Equal(t, rep, res.Assignment[rep])
	}

	// Exact duplicates are claimed just below 1.
	res, err = Greedy(c, 1-1e-9)
	require.NoError(t, err)
	for i := 100; i < 110; i++ {
		assert.Equal(t, i-100, res.Assignment[i])
	}
}

func TestGreedy_OrderSensitive(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0.8, 0.6}
	c := []float32{0.6, 0.8}

	res, err := Greedy(mustFloat32(t, [][]float32{a, b, c}), 0.75)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, res.Representatives)

	res, err = Greedy(mustFloat32(t, [][]float32{b, a, c}), 0.75)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Representatives)
}

func TestGreedy_NoMergeNoReassign(t *testing.T) {
	// b is close to both a and c but is claimed by a first; c starts its own
	// cluster even though it is close to b.
	rows := [][]float32{{1, 0}, {0.8, 0.6}, {0.6, 0.8}}
	res, err := Greedy(mustFloat32(t, rows), 0.75)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 2}, res.Assignment)
}

func TestGreedy_ZeroVectors(t *testing.T) {
	c := mustFloat32(t, [][]float32{{0, 0}, {0, 0}, {1, 1}})

	res, err := Greedy(c, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Representatives, "zero similarity meets threshold 0")

	res, err = Greedy(c, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, res.Representatives)
}

func TestGreedy_Empty(t *testing.T) {
	res, err := Greedy(corpus.Empty(corpus.Float32, 3), 0.9)
	require.NoError(t, err)
	assert.Empty(t, res.Representatives)
	assert.Empty(t, res.Assignment)
	assert.Empty(t, res.Clusters())
	assert.Equal(t, 1.0, res.Ratio())
	require.NoError(t, res.Validate())
}

func TestGreedy_Deterministic(t *testing.T) {
	c := mustFloat32(t, testutil.NewRNG(77).GaussianVectors(200, 6))
	first, err := Greedy(c, 0.6)
	require.NoError(t, err)
	second, err := Greedy(c, 0.6)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGreedy_WorkersMatchSequential(t *testing.T) {
	inputs := []*corpus.Corpus{
		testutil.FailureCorpus(11),
		mustFloat32(t, testutil.NewRNG(3).GaussianVectors(300, 5)),
	}

	for _, c := range inputs {
		for _, threshold := range []float64{0.2, 0.7, 0.95} {
			seq, err := Greedy(c, threshold)
			require.NoError(t, err)

			par, err := Greedy(c, threshold, WithWorkers(4), WithParallelCutoff(1))
			require.NoError(t, err)

			assert.Equal(t, seq, par)
		}
	}
}

func TestGreedy_LSH(t *testing.T) {
	c := testutil.FailureCorpus(11)

	res, err := Greedy(c, 0.95, WithLSH(8, 6, 1))
	require.NoError(t, err)
	assert.True(t, res.Approximate)
	requirePartition(t, res, c.Len())

	// Tight clusters survive candidate narrowing.
	exact, err := Greedy(c, 0.95)
	require.NoError(t, err)
	assert.Equal(t, exact.Representatives, res.Representatives)

	// Exact duplicates share every bucket.
	for i := 100; i < 110; i++ {
		assert.Equal(t, res.Assignment[i-100], res.Assignment[i])
	}
}

func TestGreedy_IntegerCorpus(t *testing.T) {
	c, err := corpus.FromInt32([][]int32{{1, 0}, {100, 1}, {0, 5}})
	require.NoError(t, err)

	res, err := Greedy(c, 0.99)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 2}, res.Assignment)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		res  Result
	}{
		{"RepOutOfRange", Result{Representatives: []int{3}, Assignment: []int{0}}},
		{"RepNotSelf", Result{Representatives: []int{0, 1}, Assignment: []int{0, 0}}},
		{"NotIncreasing", Result{Representatives: []int{1, 0}, Assignment: []int{0, 1}}},
		{"AssignedToNonRep", Result{Representatives: []int{0}, Assignment: []int{0, 1}}},
		{"AssignedToLater", Result{Representatives: []int{0, 2}, Assignment: []int{0, 2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.res.Validate(), ErrInvalidResult)
		})
	}
}

func TestNilCorpus(t *testing.T) {
	_, err := Greedy(nil, 0.5)
	require.ErrorIs(t, err, ErrNilCorpus)
}
