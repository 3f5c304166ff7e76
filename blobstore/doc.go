// Package blobstore abstracts where determinant snapshots are kept.
//
// A Store holds named immutable blobs. Writers either Put a whole blob or
// stream it through Create; in both cases readers never observe a partial
// blob. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and short-lived pipelines
//   - LocalStore: local filesystem with atomic replacement and mmap reads
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with ranged reads and multipart uploads
package blobstore
