package archive

import (
	"context"
	"fmt"

	"github.com/hupe1980/vecproof/blobstore"
	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/reduce"
)

// Save writes a reduction archive to s under name.
func Save(ctx context.Context, s blobstore.Store, name string, r *reduce.Reduction, optFns ...Option) error {
	data, err := Marshal(r, optFns...)
	if err != nil {
		return err
	}
	return put(ctx, s, name, data, applyOptions(optFns))
}

// Load reads a reduction archive from s.
func Load(ctx context.Context, s blobstore.Store, name string) (*reduce.Reduction, error) {
	data, err := blobstore.ReadAll(ctx, s, name)
	if err != nil {
		return nil, err
	}
	r, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return r, nil
}

// SaveClusters writes a cluster archive to s under name.
func SaveClusters(ctx context.Context, s blobstore.Store, name string, modes *corpus.Corpus, res *cluster.Result, optFns ...Option) error {
	data, err := MarshalClusters(modes, res, optFns...)
	if err != nil {
		return err
	}
	return put(ctx, s, name, data, applyOptions(optFns))
}

// LoadClusters reads a cluster archive from s.
func LoadClusters(ctx context.Context, s blobstore.Store, name string) (*ClusterSet, error) {
	data, err := blobstore.ReadAll(ctx, s, name)
	if err != nil {
		return nil, err
	}
	cs, err := UnmarshalClusters(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return cs, nil
}

// Stat reads only the header of the archive stored under name.
func Stat(ctx context.Context, s blobstore.Store, name string) (Header, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = b.Close() }()

	if b.Size() < HeaderSize {
		return Header{}, fmt.Errorf("%w: %s is %d bytes", ErrCorrupt, name, b.Size())
	}

	buf := make([]byte, HeaderSize)
	if _, err := b.ReadAt(ctx, buf, 0); err != nil {
		return Header{}, err
	}
	h, err := parseHeader(buf)
	if err != nil {
		return Header{}, err
	}
	if uint64(b.Size()-HeaderSize) != h.StoredSize {
		return Header{}, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, b.Size()-HeaderSize, h.StoredSize)
	}
	return h, nil
}

func put(ctx context.Context, s blobstore.Store, name string, data []byte, opts options) error {
	if opts.noOverwrite {
		return blobstore.PutIfNotExists(ctx, s, name, data)
	}
	return s.Put(ctx, name, data)
}
