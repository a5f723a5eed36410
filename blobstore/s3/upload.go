package s3

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/vecproof/internal/hash"
)

const artifactContentType = "application/octet-stream"

// UploadOptions tunes how artifacts are written.
type UploadOptions struct {
	// PartSize is the multipart threshold and part size. Artifacts up to
	// this size are written with a single PutObject. Default: 8 MiB.
	PartSize int64

	// Concurrency is the number of parts uploaded in parallel. Default: 5.
	Concurrency int

	// KeepPartsOnError leaves the parts of a failed multipart upload in the
	// bucket instead of aborting it.
	KeepPartsOnError bool
}

// DefaultUploadOptions returns the defaults described on UploadOptions.
func DefaultUploadOptions() UploadOptions {
	return UploadOptions{PartSize: 8 << 20, Concurrency: 5}
}

type uploader struct {
	client    Client
	partSize  int64
	multipart *manager.Uploader
}

func newUploader(client Client, opts UploadOptions) *uploader {
	return &uploader{
		client:   client,
		partSize: opts.PartSize,
		multipart: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = max(opts.PartSize, manager.MinUploadPartSize)
			u.Concurrency = max(opts.Concurrency, 1)
			u.LeavePartsOnError = opts.KeepPartsOnError
		}),
	}
}

// put writes data under key. Exclusive writes always use a single
// conditional PutObject.
func (u *uploader) put(ctx context.Context, bucket, key string, data []byte, exclusive bool) error {
	if !exclusive && int64(len(data)) > u.partSize {
		_, err := u.multipart.Upload(ctx, &s3.PutObjectInput{
			Bucket:            aws.String(bucket),
			Key:               aws.String(key),
			Body:              bytes.NewReader(data),
			ContentType:       aws.String(artifactContentType),
			ChecksumAlgorithm: types.ChecksumAlgorithmCrc32c,
		})
		return err
	}

	in := &s3.PutObjectInput{
		Bucket:         aws.String(bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(data),
		ContentLength:  aws.Int64(int64(len(data))),
		ContentType:    aws.String(artifactContentType),
		ChecksumCRC32C: aws.String(hash.CRC32CBase64(data)),
	}
	if exclusive {
		in.IfNoneMatch = aws.String("*")
	}
	_, err := u.client.PutObject(ctx, in)
	return err
}
