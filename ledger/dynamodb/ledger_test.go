package dynamodb

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/ledger"
	"github.com/hupe1980/vecproof/provenance"
	"github.com/hupe1980/vecproof/reduce"
	"github.com/hupe1980/vecproof/testutil"
)

// mockDDBClient is an in-memory DynamoDB table keyed by id. Scans return
// pages of pageSize items ordered by id.
type mockDDBClient struct {
	mu       sync.RWMutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	scans    int
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue), pageSize: 2}
}

func idOf(item map[string]types.AttributeValue) string {
	return item["id"].(*types.AttributeValueMemberS).Value
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := idOf(params.Item)
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(id)" {
		if _, exists := m.items[id]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[id] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &dynamodb.GetItemOutput{Item: m.items[idOf(params.Key)]}, nil
}

func (m *mockDDBClient) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++

	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if params.ExclusiveStartKey != nil {
		after := idOf(params.ExclusiveStartKey)
		start = sort.SearchStrings(ids, after)
		if start < len(ids) && ids[start] == after {
			start++
		}
	}
	end := min(start+m.pageSize, len(ids))

	out := &dynamodb.ScanOutput{}
	for _, id := range ids[start:end] {
		item := m.items[id]
		if params.FilterExpression != nil && !m.matches(item, params.ExpressionAttributeValues[":fp"]) {
			continue
		}
		out.Items = append(out.Items, item)
	}
	if end < len(ids) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: ids[end-1]}}
	}
	return out, nil
}

func (m *mockDDBClient) matches(item map[string]types.AttributeValue, want types.AttributeValue) bool {
	fp := want.(*types.AttributeValueMemberS).Value
	for _, name := range []string{"original_fp", "reduced_fp", "expanded_fp"} {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok && v.Value == fp {
			return true
		}
	}
	return false
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
	l := NewLedger(newMockDDBClient(), "vecproof-runs")

	rec := uniqueRecord(t)
	e := ledger.FromRecord(rec)
	e.Dataset = "trajectories.npy"
	e.RunDir = "runs/abc"
	require.NoError(t, l.Append(ctx, e))
	require.NotEmpty(t, e.ID)

	got, err := l.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, ledger.KindReduction, got.Kind)
	assert.Equal(t, "trajectories.npy", got.Dataset)
	assert.Equal(t, "runs/abc", got.RunDir)
	assert.Equal(t, rec.Original, got.Original)
	assert.Equal(t, rec.Expanded, got.Expanded)
	assert.Equal(t, 60, got.Rows)
	assert.Equal(t, 40, got.ReducedRows)
	assert.InDelta(t, 40.0/60.0, got.Ratio, 1e-12)
	assert.True(t, got.Passed)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
	require.NoError(t, l.Close())
}

func TestLedger_Errors(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(newMockDDBClient(), "vecproof-runs")

	_, err := l.Get(ctx, "missing")
	require.ErrorIs(t, err, ledger.ErrNotFound)

	e := ledger.FromRecord(uniqueRecord(t))
	e.ID = "run-1"
	require.NoError(t, l.Append(ctx, e))

	dup := ledger.FromRecord(uniqueRecord(t))
	dup.ID = "run-1"
	require.ErrorIs(t, l.Append(ctx, dup), ledger.ErrDuplicate)
}

func TestLedger_ListAndFind(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	l := NewLedger(client, "vecproof-runs")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	rec := uniqueRecord(t)
	first := ledger.FromRecord(rec)
	first.ID = "c"
	require.NoError(t, l.Append(ctx, first))

	c := testutil.FailureCorpus(11)
	res, err := cluster.Greedy(c, 0.95)
	require.NoError(t, err)
	rep, err := provenance.Report(c, res)
	require.NoError(t, err)
	heuristic := ledger.FromReport(rep)
	heuristic.ID = "a"
	require.NoError(t, l.Append(ctx, heuristic))

	again := ledger.FromRecord(rec)
	again.ID = "b"
	require.NoError(t, l.Append(ctx, again))

	all, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, 2, client.scans)

	h := all[1]
	assert.Equal(t, ledger.KindHeuristic, h.Kind)
	assert.True(t, h.Expanded.IsZero())
	assert.Equal(t, 4, h.ReducedRows)

	byOriginal, err := l.FindByFingerprint(ctx, rec.Original)
	require.NoError(t, err)
	require.Len(t, byOriginal, 2)
	assert.Equal(t, "c", byOriginal[0].ID)
	assert.Equal(t, "b", byOriginal[1].ID)

	byReps, err := l.FindByFingerprint(ctx, rep.Representatives)
	require.NoError(t, err)
	require.Len(t, byReps, 1)
	assert.Equal(t, "a", byReps[0].ID)

	none, err := l.FindByFingerprint(ctx, fingerprint.Sum([]byte("unrelated")))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUnmarshalEntry_Invalid(t *testing.T) {
	e := ledger.FromRecord(uniqueRecord(t))
	ledger.Prepare(e, time.Now)
	item := marshalEntry(e)

	back, err := unmarshalEntry(item)
	require.NoError(t, err)
	assert.Equal(t, e.Reduced, back.Reduced)

	delete(item, "passed")
	_, err = unmarshalEntry(item)
	require.ErrorIs(t, err, errInvalidItem)

	item = marshalEntry(e)
	item["original_fp"] = &types.AttributeValueMemberS{Value: "md5:00"}
	_, err = unmarshalEntry(item)
	require.ErrorIs(t, err, errInvalidItem)

	item = marshalEntry(e)
	item["rows"] = &types.AttributeValueMemberS{Value: "60"}
	_, err = unmarshalEntry(item)
	require.ErrorIs(t, err, errInvalidItem)
}
