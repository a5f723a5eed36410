package vecproof

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/provenance"
	"github.com/hupe1980/vecproof/reduce"
)

// Engine runs reductions, clusterings and verifications with logging and
// metrics attached. The zero value is not usable; construct with New.
//
// An Engine holds no corpus state and is safe for concurrent use.
type Engine struct {
	opts options
}

// New creates an Engine.
func New(optFns ...Option) *Engine {
	return &Engine{opts: applyOptions(optFns)}
}

// Logger returns the configured logger.
func (e *Engine) Logger() *Logger { return e.opts.logger }

// Algorithm returns the configured fingerprint algorithm.
func (e *Engine) Algorithm() fingerprint.Algorithm { return e.opts.algorithm }

// Fingerprint hashes data with the configured algorithm.
func (e *Engine) Fingerprint(data []byte) fingerprint.Fingerprint {
	return fingerprint.SumWith(e.opts.algorithm, data)
}

// Unique removes exact duplicate rows. See reduce.Unique.
func (e *Engine) Unique(ctx context.Context, c *corpus.Corpus, optFns ...reduce.Option) (*reduce.Reduction, error) {
	return e.reduce(ctx, c, reduce.KindInverseIndex, func() (*reduce.Reduction, error) {
		return reduce.Unique(c, optFns...)
	})
}

// Consecutive removes runs of repeated rows. See reduce.Consecutive.
func (e *Engine) Consecutive(ctx context.Context, c *corpus.Corpus) (*reduce.Reduction, error) {
	return e.reduce(ctx, c, reduce.KindKeptIndices, func() (*reduce.Reduction, error) {
		return reduce.Consecutive(c)
	})
}

func (e *Engine) reduce(ctx context.Context, c *corpus.Corpus, kind reduce.Kind, fn func() (*reduce.Reduction, error)) (_ *reduce.Reduction, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := e.startSpan(ctx, "vecproof.Reduce", attribute.String("mode", kind.Mode()))
	defer func() { endSpan(span, err) }()

	start := time.Now()
	r, err := fn()
	err = translateError(err)

	rows, reducedRows := 0, 0
	if c != nil {
		rows = c.Len()
	}
	if r != nil {
		reducedRows = r.Reduced.Len()
	}
	span.SetAttributes(attribute.Int("rows", rows), attribute.Int("reduced_rows", reducedRows))
	e.opts.metrics.RecordReduce(kind.Mode(), rows, reducedRows, time.Since(start), err)
	e.opts.logger.LogReduce(ctx, kind.Mode(), rows, reducedRows, err)

	if err != nil {
		return nil, err
	}
	return r, nil
}

// Expand reconstructs the original corpus of r. See reduce.Expand.
func (e *Engine) Expand(ctx context.Context, r *reduce.Reduction) (_ *corpus.Corpus, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := e.startSpan(ctx, "vecproof.Expand")
	defer func() { endSpan(span, err) }()

	out, err := reduce.Expand(r)
	if err != nil {
		err = translateError(err)
		e.opts.logger.ErrorContext(ctx, "expand failed", "error", err)
		return nil, err
	}
	return out, nil
}

// Cluster groups near-duplicate rows by cosine similarity. See cluster.Greedy.
//
// Thresholds outside [-1, 1] are accepted and logged as a warning.
func (e *Engine) Cluster(ctx context.Context, c *corpus.Corpus, threshold float64, optFns ...cluster.Option) (_ *cluster.Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := e.startSpan(ctx, "vecproof.Cluster", attribute.Float64("threshold", threshold))
	defer func() { endSpan(span, err) }()

	if !cluster.ThresholdInRange(threshold) {
		e.opts.logger.WarnContext(ctx, "cluster threshold outside [-1, 1]",
			"threshold", threshold,
		)
	}

	opts := append([]cluster.Option{cluster.WithWorkers(e.opts.workers)}, optFns...)

	start := time.Now()
	res, err := cluster.Greedy(c, threshold, opts...)
	err = translateError(err)

	rows, modes := 0, 0
	if c != nil {
		rows = c.Len()
	}
	if res != nil {
		modes = res.NumModes()
	}
	span.SetAttributes(attribute.Int("rows", rows), attribute.Int("modes", modes))
	e.opts.metrics.RecordCluster(rows, modes, time.Since(start), err)
	e.opts.logger.LogCluster(ctx, threshold, rows, modes, err)

	if err != nil {
		return nil, err
	}
	return res, nil
}

// Verify proves r against original. See provenance.Verify.
//
// On a mismatch the record is returned together with an error matching
// ErrVerificationFailed.
func (e *Engine) Verify(ctx context.Context, original *corpus.Corpus, r *reduce.Reduction) (_ *provenance.Record, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := e.startSpan(ctx, "vecproof.Verify", attribute.String("algorithm", e.opts.algorithm.String()))
	defer func() { endSpan(span, err) }()

	start := time.Now()
	rec, err := provenance.Verify(original, r, provenance.WithAlgorithm(e.opts.algorithm))
	err = translateError(err)
	if rec != nil {
		span.SetAttributes(
			attribute.String("mode", rec.Mode),
			attribute.String("original_fingerprint", rec.Original.String()),
			attribute.Bool("passed", rec.Passed()),
		)
	}

	e.opts.metrics.RecordVerify(err == nil && rec.Passed(), time.Since(start), err)
	e.opts.logger.LogVerify(ctx, rec, err)

	return rec, err
}

// Report summarizes a clustering of original. See provenance.Report.
func (e *Engine) Report(ctx context.Context, original *corpus.Corpus, res *cluster.Result) (_ *provenance.HeuristicReport, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := e.startSpan(ctx, "vecproof.Report")
	defer func() { endSpan(span, err) }()

	rep, err := provenance.Report(original, res, provenance.WithAlgorithm(e.opts.algorithm))
	if err != nil {
		return nil, translateError(err)
	}
	return rep, nil
}

// ReduceAndVerify runs the reducer for kind and verifies the result.
func (e *Engine) ReduceAndVerify(ctx context.Context, c *corpus.Corpus, kind reduce.Kind, optFns ...reduce.Option) (_ *reduce.Reduction, _ *provenance.Record, err error) {
	ctx, span := e.startSpan(ctx, "vecproof.ReduceAndVerify", attribute.String("mode", kind.Mode()))
	defer func() { endSpan(span, err) }()

	var r *reduce.Reduction
	switch kind {
	case reduce.KindInverseIndex:
		r, err = e.Unique(ctx, c, optFns...)
	case reduce.KindKeptIndices:
		r, err = e.Consecutive(ctx, c)
	default:
		return nil, nil, fmt.Errorf("%w: unknown kind %s", ErrInvalidMap, kind)
	}
	if err != nil {
		return nil, nil, err
	}

	rec, err := e.Verify(ctx, c, r)
	return r, rec, err
}
