package blobstore

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedStore wraps a Store and waits on a token-bucket limiter before
// every call. Reads through an opened Blob are not limited.
type RateLimitedStore struct {
	inner   Store
	limiter *rate.Limiter
}

// RateLimited wraps inner with a limiter allowing ops calls per second with
// the given burst. ops <= 0 disables limiting.
func RateLimited(inner Store, ops float64, burst int) *RateLimitedStore {
	limit := rate.Limit(ops)
	if ops <= 0 {
		limit = rate.Inf
	}
	return &RateLimitedStore{
		inner:   inner,
		limiter: rate.NewLimiter(limit, max(burst, 1)),
	}
}

// Open implements Store.
func (s *RateLimitedStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Open(ctx, name)
}

// Put implements Store.
func (s *RateLimitedStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

// PutIfNotExists implements ConditionalPutter by delegating to the wrapped
// store.
func (s *RateLimitedStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return PutIfNotExists(ctx, s.inner, name, data)
}

// Delete implements Store.
func (s *RateLimitedStore) Delete(ctx context.Context, name string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Delete(ctx, name)
}

// List implements Store.
func (s *RateLimitedStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.List(ctx, prefix)
}
