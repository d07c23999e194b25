package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"

	"profile-ingest/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/rotisserie/eris"
)

// StorageFetcher reads s3://bucket/key references from object storage.
type StorageFetcher struct {
	client storage.Client
}

// NewStorageFetcher creates a StorageFetcher over client.
func NewStorageFetcher(client storage.Client) *StorageFetcher {
	return &StorageFetcher{client: client}
}

// Fetch opens the object named by ref.
func (f *StorageFetcher) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, key, err := ParseObjectRef(ref)
	if err != nil {
		return nil, err
	}
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: get object %s/%s", bucket, key)
	}
	return obj, nil
}

// ParseObjectRef splits an s3://bucket/key reference.
func ParseObjectRef(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", eris.Wrapf(err, "fetcher: parse %s", ref)
	}
	if u.Scheme != "s3" {
		return "", "", eris.Errorf("fetcher: %s is not an s3 reference", ref)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", eris.Errorf("fetcher: %s must name a bucket and a key", ref)
	}
	return u.Host, key, nil
}
