package vecproof

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/reduce"
	"github.com/hupe1980/vecproof/testutil"
)

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("ReduceAndVerifyUnique", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		e := New(WithMetricsCollector(metrics))

		c := testutil.TrajectoryCorpus(7)
		r, rec, err := e.ReduceAndVerify(ctx, c, reduce.KindInverseIndex)
		require.NoError(t, err)
		assert.Equal(t, 40, r.Reduced.Len())
		assert.True(t, rec.Passed())

		stats := metrics.GetStats()
		assert.Equal(t, int64(1), stats.ReduceCount)
		assert.Equal(t, int64(60), stats.ReduceRows)
		assert.Equal(t, int64(20), stats.ReduceRowsSaved)
		assert.Equal(t, int64(1), stats.VerifyCount)
		assert.Zero(t, stats.VerifyFailures)
	})

	t.Run("ReduceAndVerifyConsecutive", func(t *testing.T) {
		e := New(WithAlgorithm(fingerprint.BLAKE3))

		c := testutil.TelemetryCorpus(21)
		r, rec, err := e.ReduceAndVerify(ctx, c, reduce.KindKeptIndices)
		require.NoError(t, err)
		assert.Equal(t, 422, r.Reduced.Len())
		assert.Equal(t, fingerprint.BLAKE3, rec.Original.Algorithm)
		assert.Equal(t, e.Fingerprint(c.Bytes()), rec.Original)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		_, _, err := New().ReduceAndVerify(ctx, testutil.TrajectoryCorpus(7), reduce.Kind(0))
		require.ErrorIs(t, err, ErrInvalidMap)
	})

	t.Run("VerifyMismatch", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		e := New(WithMetricsCollector(metrics))

		c := testutil.TrajectoryCorpus(7)
		r, err := e.Unique(ctx, c)
		require.NoError(t, err)
		r.Map.Inverse[0] = (r.Map.Inverse[0] + 1) % r.Reduced.Len()

		rec, err := e.Verify(ctx, c, r)
		require.ErrorIs(t, err, ErrVerificationFailed)
		require.NotNil(t, rec)
		assert.False(t, rec.Passed())
		assert.Equal(t, int64(1), metrics.GetStats().VerifyFailures)
	})

	t.Run("Expand", func(t *testing.T) {
		e := New()
		c := testutil.TelemetryCorpus(21)

		r, err := e.Consecutive(ctx, c)
		require.NoError(t, err)

		out, err := e.Expand(ctx, r)
		require.NoError(t, err)
		assert.True(t, c.Equal(out))

		r.Map.Kept[0] = 1
		_, err = e.Expand(ctx, r)
		require.ErrorIs(t, err, ErrInvalidMap)
		require.ErrorIs(t, err, reduce.ErrInvalidMap)
	})

	t.Run("ClusterAndReport", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		e := New(WithMetricsCollector(metrics), WithWorkers(4))

		c := testutil.FailureCorpus(11)
		res, err := e.Cluster(ctx, c, 0.95, cluster.WithParallelCutoff(1))
		require.NoError(t, err)
		assert.Equal(t, testutil.FailureModes, res.NumModes())

		report, err := e.Report(ctx, c, res)
		require.NoError(t, err)
		assert.True(t, report.Heuristic)
		assert.Equal(t, 110, report.TotalInputs)

		stats := metrics.GetStats()
		assert.Equal(t, int64(1), stats.ClusterCount)
		assert.Equal(t, int64(110), stats.ClusterRows)
		assert.Equal(t, int64(4), stats.ClusterModes)
	})

	t.Run("ThresholdOutOfRangeWarns", func(t *testing.T) {
		var buf bytes.Buffer
		e := New(WithLogger(NewLogger(&buf, LogFormatJSON, slog.LevelWarn)))

		c, err := corpus.FromFloat32([][]float32{{1, 0}, {0, 1}})
		require.NoError(t, err)

		res, err := e.Cluster(ctx, c, 1.5)
		require.NoError(t, err)
		assert.Equal(t, 2, res.NumModes())
		assert.Contains(t, buf.String(), "cluster threshold outside [-1, 1]")
	})

	t.Run("NilCorpus", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		e := New(WithMetricsCollector(metrics))

		_, err := e.Unique(ctx, nil)
		require.ErrorIs(t, err, ErrNilCorpus)
		_, err = e.Cluster(ctx, nil, 0.5)
		require.ErrorIs(t, err, ErrNilCorpus)
		_, err = e.Verify(ctx, nil, nil)
		require.ErrorIs(t, err, ErrNilCorpus)

		stats := metrics.GetStats()
		assert.Equal(t, int64(1), stats.ReduceErrors)
		assert.Equal(t, int64(1), stats.ClusterErrors)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := New().Unique(cctx, testutil.TrajectoryCorpus(7))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestLogger(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	l := NewLogger(&buf, LogFormatJSON, slog.LevelInfo).WithRunID("run-1")
	l.LogReduce(ctx, "unique", 60, 40, nil)

	out := buf.String()
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.Contains(t, out, `"reduced_rows":40`)
	assert.Contains(t, out, `"msg":"reduce completed"`)

	buf.Reset()
	l.LogCluster(ctx, 0.9, 10, 0, errors.New("boom"))
	out = buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"msg":"cluster failed"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.NotContains(t, out, `"modes"`)

	buf.Reset()
	text := NewLogger(&buf, LogFormatText, slog.LevelWarn)
	text.LogReduce(ctx, "consecutive", 5, 2, nil)
	assert.Empty(t, buf.String())
	text.LogVerify(ctx, nil, ErrVerificationFailed)
	assert.Contains(t, buf.String(), "msg=\"verification failed\"")

	buf.Reset()
	NoopLogger().LogReduce(ctx, "unique", 1, 1, nil)
	assert.Empty(t, buf.String())
}

func TestTranslateError(t *testing.T) {
	_, err := corpus.FromFloat32([][]float32{{1, 2}, {3}})
	require.Error(t, err)

	var shape *ErrInputShape
	require.ErrorAs(t, translateError(err), &shape)
	assert.Equal(t, 1, shape.Row)
	assert.Equal(t, 2, shape.Expected)
	assert.Equal(t, 1, shape.Actual)

	var inner *corpus.InputShapeError
	assert.ErrorAs(t, shape, &inner)

	assert.NoError(t, translateError(nil))
}
