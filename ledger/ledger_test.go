package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/provenance"
	"github.com/hupe1980/vecproof/reduce"
	"github.com/hupe1980/vecproof/testutil"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func uniqueRecord(t *testing.T) *provenance.Record {
	t.Helper()
	c := testutil.TrajectoryCorpus(7)
	r, err := reduce.Unique(c)
	require.NoError(t, err)
	rec, err := provenance.Verify(c, r)
	require.NoError(t, err)
	return rec
}

func TestLedger_AppendGet(t *testing.T) {
	ctx := context.Background()
	l := openTemp(t)

	rec := uniqueRecord(t)
	e := FromRecord(rec)
	e.Dataset = "trajectories.npy"
	e.RunDir = "runs/abc"
	require.NoError(t, l.Append(ctx, e))
	require.NotEmpty(t, e.ID)
	require.False(t, e.CreatedAt.IsZero())

	got, err := l.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, KindReduction, got.Kind)
	assert.Equal(t, "unique", got.Mode)
	assert.Equal(t, "trajectories.npy", got.Dataset)
	assert.Equal(t, "runs/abc", got.RunDir)
	assert.Equal(t, rec.Original, got.Original)
	assert.Equal(t, rec.Reduced, got.Reduced)
	assert.Equal(t, rec.Expanded, got.Expanded)
	assert.Equal(t, 60, got.Rows)
	assert.Equal(t, 40, got.ReducedRows)
	assert.InDelta(t, 40.0/60.0, got.Ratio, 1e-12)
	assert.True(t, got.Passed)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
}

func TestLedger_GetNotFound(t *testing.T) {
	l := openTemp(t)
	_, err := l.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_Duplicate(t *testing.T) {
	ctx := context.Background()
	l := openTemp(t)

	e := FromRecord(uniqueRecord(t))
	e.ID = "run-1"
	require.NoError(t, l.Append(ctx, e))

	dup := FromRecord(uniqueRecord(t))
	dup.ID = "run-1"
	require.ErrorIs(t, l.Append(ctx, dup), ErrDuplicate)
}

func TestLedger_ListAndFind(t *testing.T) {
	ctx := context.Background()
	l := openTemp(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	rec := uniqueRecord(t)
	first := FromRecord(rec)
	require.NoError(t, l.Append(ctx, first))

	c := testutil.FailureCorpus(11)
	res, err := cluster.Greedy(c, 0.95)
	require.NoError(t, err)
	rep, err := provenance.Report(c, res)
	require.NoError(t, err)
	heuristic := FromReport(rep)
	require.NoError(t, l.Append(ctx, heuristic))

	again := FromRecord(rec)
	require.NoError(t, l.Append(ctx, again))

	all, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{first.ID, heuristic.ID, again.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	h := all[1]
	assert.Equal(t, KindHeuristic, h.Kind)
	assert.True(t, h.Expanded.IsZero())
	assert.Equal(t, 110, h.Rows)
	assert.Equal(t, 4, h.ReducedRows)

	byOriginal, err := l.FindByFingerprint(ctx, rec.Original)
	require.NoError(t, err)
	require.Len(t, byOriginal, 2)
	assert.Equal(t, first.ID, byOriginal[0].ID)
	assert.Equal(t, again.ID, byOriginal[1].ID)

	byReps, err := l.FindByFingerprint(ctx, rep.Representatives)
	require.NoError(t, err)
	require.Len(t, byReps, 1)
	assert.Equal(t, heuristic.ID, byReps[0].ID)

	none, err := l.FindByFingerprint(ctx, fingerprint.Sum([]byte("unrelated")))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedger_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := Open(ctx, path)
	require.NoError(t, err)
	e := FromRecord(uniqueRecord(t))
	require.NoError(t, l.Append(ctx, e))
	require.NoError(t, l.Close())

	l, err = Open(ctx, path)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Original, got.Original)
}

func TestLedger_Closed(t *testing.T) {
	ctx := context.Background()
	l, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	require.ErrorIs(t, l.Append(ctx, FromRecord(uniqueRecord(t))), ErrClosed)
	_, err = l.List(ctx)
	require.ErrorIs(t, err, ErrClosed)
}
