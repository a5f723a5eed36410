// Package blobstore provides the storage abstraction for artifacts and
// provenance documents.
//
// Store is the interface for reading and writing named blobs. Names use
// forward slashes regardless of backend. Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic temp-file + rename writes
//   - MemoryStore: In-memory, for tests and ephemeral runs
//   - s3.Store: Amazon S3 with range reads and CRC32C-checked uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// RateLimited wraps any Store with a token-bucket limiter.
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Implement ConditionalPutter as well to support write-once artifacts.
package blobstore
