package cluster

type options struct {
	workers        int
	parallelCutoff int
	lsh            *lshConfig
}

type lshConfig struct {
	tables int
	bits   int
	seed   int64
}

// Option configures Greedy.
type Option func(*options)

// WithWorkers evaluates the candidates of each representative with up to n
// goroutines. n <= 1 keeps the scan sequential.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithParallelCutoff sets the minimum number of candidates for which a
// representative's comparisons are split across workers. Defaults to 1024.
func WithParallelCutoff(n int) Option {
	return func(o *options) {
		o.parallelCutoff = n
	}
}

// WithLSH enables random-hyperplane candidate narrowing with the given
// number of hash tables and signature bits per table (1..64).
func WithLSH(tables, bits int, seed int64) Option {
	return func(o *options) {
		o.lsh = &lshConfig{tables: tables, bits: bits, seed: seed}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		workers:        1,
		parallelCutoff: 1024,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
