package manifest

import (
	"time"

	"github.com/hupe1980/vecproof/codec"
)

type options struct {
	codec  codec.Codec
	now    func() time.Time
	html   bool
	newID  func() string
	prefix string
}

// Option configures a Store.
type Option func(*options)

// WithCodec sets the manifest codec. Default: codec.Default (go-json).
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithClock sets the time source for created_at_utc.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithHTMLReport also writes verification_report.html.
func WithHTMLReport() Option {
	return func(o *options) {
		o.html = true
	}
}

// WithPrefix places runs and CURRENT under prefix within the store.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func withIDFunc(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}
