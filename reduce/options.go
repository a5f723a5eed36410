package reduce

type options struct {
	order Order
}

// Option configures Unique.
type Option func(*options)

// WithOrder sets the unique-set ordering policy. Defaults to FirstSeen.
func WithOrder(o Order) Option {
	return func(opts *options) {
		opts.order = o
	}
}

func applyOptions(optFns []Option) options {
	o := options{order: FirstSeen}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
