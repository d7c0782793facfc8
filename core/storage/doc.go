// Package storage mirrors downloaded artwork to S3-compatible object storage.
//
// It wraps the MinIO Go client behind the Client interface so the mirror can be
// mocked in tests (see core/storage/mocks). Mirroring is optional: when it is
// disabled the local image directory is the only copy.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
//	n, err := storage.RemovePrefix(ctx, client, cfg.Storage.Bucket, "record/")
package storage
