// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("vecproof/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = archive.Save(ctx, store, "runs/1/reduced.vpar", r)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - CRC32C-checked single-part uploads, multipart uploads for large blobs
//   - Conditional writes (If-None-Match) for write-once artifacts
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
