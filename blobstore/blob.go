package blobstore

import (
	"bytes"
	"context"
	"io"
)

// BytesBlob is a Blob over a byte slice that the caller no longer mutates.
type BytesBlob struct {
	data []byte
}

// NewBytesBlob wraps data without copying it.
func NewBytesBlob(data []byte) *BytesBlob {
	return &BytesBlob{data: data}
}

func (b *BytesBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r := bytes.NewReader(b.data)
	return r.ReadAt(p, off)
}

func (b *BytesBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := b.Size()
	if off < 0 || off > size {
		return nil, io.EOF
	}
	end := off + min(max(length, 0), size-off)
	return io.NopCloser(bytes.NewReader(b.data[off:end])), nil
}

func (b *BytesBlob) Size() int64 { return int64(len(b.data)) }

func (b *BytesBlob) Close() error { return nil }
