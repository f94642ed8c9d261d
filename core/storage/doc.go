// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the
// operations the dataset pipeline needs: fetching source dataset files,
// listing what is available, and accepting uploads. This abstraction
// supports both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easier to mock storage interactions for unit testing (as seen in
// core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the dataset bucket.
//   - GetObject: Retrieves a dataset file as a stream.
//   - ListObjects: Lists dataset files (supports prefix/recursive).
//   - PutObject: Uploads a dataset file.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "datasets")
package storage
