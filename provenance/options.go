package provenance

import "github.com/hupe1980/vecproof/fingerprint"

type options struct {
	algorithm fingerprint.Algorithm
	sum       func([]byte) fingerprint.Fingerprint
}

// Option configures Verify and Report.
type Option func(*options)

// WithAlgorithm selects the fingerprint algorithm. Defaults to SHA256.
func WithAlgorithm(alg fingerprint.Algorithm) Option {
	return func(o *options) {
		o.algorithm = alg
		o.sum = nil
	}
}

// withSumFunc replaces the fingerprint function; used to exercise the
// defect path in tests.
func withSumFunc(fn func([]byte) fingerprint.Fingerprint) Option {
	return func(o *options) {
		o.sum = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{algorithm: fingerprint.SHA256}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.sum == nil {
		alg := o.algorithm
		o.sum = func(b []byte) fingerprint.Fingerprint { return fingerprint.SumWith(alg, b) }
	}
	return o
}
