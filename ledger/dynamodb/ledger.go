package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/ledger"
)

// Client is the subset of *dynamodb.Client used by Ledger.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Ledger is a DynamoDB-backed ledger.Store.
type Ledger struct {
	client Client
	table  string
	now    func() time.Time
}

var _ ledger.Store = (*Ledger)(nil)

// NewLedger returns a ledger writing to table through client.
func NewLedger(client Client, table string) *Ledger {
	return &Ledger{client: client, table: table, now: time.Now}
}

// Option configures New.
type Option func(*options)

type options struct {
	region   string
	endpoint string
}

// WithRegion overrides the region from the default AWS configuration.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint sets a custom endpoint such as DynamoDB Local.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// New loads the default AWS configuration and returns a ledger for table.
func New(ctx context.Context, table string, optFns ...Option) (*Ledger, error) {
	var opts options
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.endpoint != "" {
			o.BaseEndpoint = aws.String(opts.endpoint)
		}
	})
	return NewLedger(client, table), nil
}

// Close is a no-op; the client holds no resources.
func (l *Ledger) Close() error { return nil }

// Append writes e unless an item with the same ID exists.
func (l *Ledger) Append(ctx context.Context, e *ledger.Entry) error {
	ledger.Prepare(e, l.now)

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.table),
		Item:                marshalEntry(e),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s", ledger.ErrDuplicate, e.ID)
		}
		return fmt.Errorf("append %s: %w", e.ID, err)
	}
	return nil
}

// Get returns the entry with the given ID using a strongly consistent read.
func (l *Ledger) Get(ctx context.Context, id string) (*ledger.Entry, error) {
	resp, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.table),
		Key:            map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	if len(resp.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", ledger.ErrNotFound, id)
	}
	return unmarshalEntry(resp.Item)
}

// List returns all entries, oldest first.
func (l *Ledger) List(ctx context.Context) ([]*ledger.Entry, error) {
	return l.scan(ctx, nil)
}

// FindByFingerprint returns the entries in which fp appears as original,
// reduced or expanded fingerprint, oldest first.
func (l *Ledger) FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) ([]*ledger.Entry, error) {
	return l.scan(ctx, &dynamodb.ScanInput{
		FilterExpression: aws.String("original_fp = :fp OR reduced_fp = :fp OR expanded_fp = :fp"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fp": &types.AttributeValueMemberS{Value: fp.String()},
		},
	})
}

func (l *Ledger) scan(ctx context.Context, in *dynamodb.ScanInput) ([]*ledger.Entry, error) {
	if in == nil {
		in = &dynamodb.ScanInput{}
	}
	in.TableName = aws.String(l.table)

	var out []*ledger.Entry
	for {
		resp, err := l.client.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		for _, item := range resp.Items {
			e, err := unmarshalEntry(item)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}

	ledger.Sort(out)
	return out, nil
}

func marshalEntry(e *ledger.Entry) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"id":           &types.AttributeValueMemberS{Value: e.ID},
		"created_at":   &types.AttributeValueMemberN{Value: strconv.FormatInt(e.CreatedAt.UnixNano(), 10)},
		"kind":         &types.AttributeValueMemberS{Value: e.Kind},
		"mode":         &types.AttributeValueMemberS{Value: e.Mode},
		"original_fp":  &types.AttributeValueMemberS{Value: e.Original.String()},
		"reduced_fp":   &types.AttributeValueMemberS{Value: e.Reduced.String()},
		"rows":         &types.AttributeValueMemberN{Value: strconv.Itoa(e.Rows)},
		"reduced_rows": &types.AttributeValueMemberN{Value: strconv.Itoa(e.ReducedRows)},
		"ratio":        &types.AttributeValueMemberN{Value: strconv.FormatFloat(e.Ratio, 'g', -1, 64)},
		"passed":       &types.AttributeValueMemberBOOL{Value: e.Passed},
	}
	// Optional attributes are omitted when empty.
	if e.Dataset != "" {
		item["dataset"] = &types.AttributeValueMemberS{Value: e.Dataset}
	}
	if e.RunDir != "" {
		item["run_dir"] = &types.AttributeValueMemberS{Value: e.RunDir}
	}
	if !e.Expanded.IsZero() {
		item["expanded_fp"] = &types.AttributeValueMemberS{Value: e.Expanded.String()}
	}
	return item
}

var errInvalidItem = errors.New("invalid ledger item")

func unmarshalEntry(item map[string]types.AttributeValue) (*ledger.Entry, error) {
	var (
		e   ledger.Entry
		err error
	)
	if e.ID, err = str(item, "id", true); err != nil {
		return nil, err
	}
	created, err := num(item, "created_at")
	if err != nil {
		return nil, err
	}
	nanos, err := strconv.ParseInt(created, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at %q", errInvalidItem, created)
	}
	e.CreatedAt = time.Unix(0, nanos).UTC()

	if e.Kind, err = str(item, "kind", true); err != nil {
		return nil, err
	}
	if e.Mode, err = str(item, "mode", true); err != nil {
		return nil, err
	}
	if e.Dataset, err = str(item, "dataset", false); err != nil {
		return nil, err
	}
	if e.RunDir, err = str(item, "run_dir", false); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name     string
		dst      *fingerprint.Fingerprint
		required bool
	}{
		{"original_fp", &e.Original, true},
		{"reduced_fp", &e.Reduced, true},
		{"expanded_fp", &e.Expanded, false},
	} {
		s, err := str(item, f.name, f.required)
		if err != nil {
			return nil, err
		}
		if s == "" {
			continue
		}
		if *f.dst, err = fingerprint.Parse(s); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errInvalidItem, f.name, err)
		}
	}

	if e.Rows, err = intAttr(item, "rows"); err != nil {
		return nil, err
	}
	if e.ReducedRows, err = intAttr(item, "reduced_rows"); err != nil {
		return nil, err
	}
	ratio, err := num(item, "ratio")
	if err != nil {
		return nil, err
	}
	if e.Ratio, err = strconv.ParseFloat(ratio, 64); err != nil {
		return nil, fmt.Errorf("%w: ratio %q", errInvalidItem, ratio)
	}

	passed, ok := item["passed"].(*types.AttributeValueMemberBOOL)
	if !ok {
		return nil, fmt.Errorf("%w: passed", errInvalidItem)
	}
	e.Passed = passed.Value
	return &e, nil
}

func str(item map[string]types.AttributeValue, name string, required bool) (string, error) {
	v, ok := item[name]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: missing %s", errInvalidItem, name)
		}
		return "", nil
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", errInvalidItem, name)
	}
	return s.Value, nil
}

func num(item map[string]types.AttributeValue, name string) (string, error) {
	n, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a number", errInvalidItem, name)
	}
	return n.Value, nil
}

func intAttr(item map[string]types.AttributeValue, name string) (int, error) {
	s, err := num(item, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errInvalidItem, name, s)
	}
	return v, nil
}
