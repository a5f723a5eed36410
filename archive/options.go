package archive

import "github.com/hupe1980/vecproof/fingerprint"

type options struct {
	compression Compression
	algorithm   fingerprint.Algorithm
	noOverwrite bool
}

// Option configures archive encoding and saving.
type Option func(*options)

// WithCompression sets the payload compression. Default: CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithAlgorithm sets the algorithm of the embedded row fingerprint.
// Default: SHA256.
func WithAlgorithm(alg fingerprint.Algorithm) Option {
	return func(o *options) {
		o.algorithm = alg
	}
}

// WithNoOverwrite makes Save fail with blobstore.ErrExists instead of
// replacing an existing blob.
func WithNoOverwrite() Option {
	return func(o *options) {
		o.noOverwrite = true
	}
}

func applyOptions(optFns []Option) options {
	opts := options{
		compression: CompressionNone,
		algorithm:   fingerprint.SHA256,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}
