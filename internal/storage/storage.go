package storage

import "context"

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket string
	Key    string
}

// Service ships local files to remote object storage.
type Service interface {
	UploadFile(ctx context.Context, localPath string, opts UploadOptions) (string, error)
	// ObjectSizes reports the stored size of each key in keys that exists under prefix.
	ObjectSizes(ctx context.Context, bucket, prefix string, keys []string) (map[string]int64, error)
}
