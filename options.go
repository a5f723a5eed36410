package vecproof

import (
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hupe1980/vecproof/fingerprint"
)

type options struct {
	algorithm fingerprint.Algorithm
	workers   int
	metrics   MetricsCollector
	logger    *Logger
	tracer    trace.Tracer
}

func defaultOptions() options {
	return options{
		algorithm: fingerprint.SHA256,
		workers:   1,
		metrics:   NoopMetricsCollector{},
		logger:    NoopLogger(),
		tracer:    defaultTracer(),
	}
}

// Option configures an Engine.
type Option func(*options)

// WithAlgorithm sets the fingerprint algorithm for verification records and
// cluster reports. The default is fingerprint.SHA256.
func WithAlgorithm(alg fingerprint.Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// WithWorkers sets how many goroutines Cluster uses when the call itself
// passes no cluster.WithWorkers.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMetricsCollector receives one event per reduce, cluster and verify
// call. nil disables collection.
//
//	stats := &vecproof.BasicMetricsCollector{}
//	e := vecproof.New(vecproof.WithMetricsCollector(stats))
//	...
//	fmt.Println(stats.GetStats().ReduceRowsSaved)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithLogger sets the engine's logger. nil silences it.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithTracerProvider traces engine calls with tp instead of the global
// OpenTelemetry provider. nil disables tracing.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp == nil {
			tp = noop.NewTracerProvider()
		}
		o.tracer = tp.Tracer(tracerName)
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
