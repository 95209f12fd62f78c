package resume

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore implements ObjectStore on a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore opens a client for bucket. An empty credentialsFile uses
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Exists implements ObjectStore.
func (s *GCSStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List implements ObjectStore.
func (s *GCSStore) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	query := &storage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}

	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	names := make([]string, 0, limit)
	for len(names) < limit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// SignedURL implements ObjectStore. The link forces a download.
func (s *GCSStore) SignedURL(_ context.Context, name string, expires time.Time) (string, error) {
	return s.client.Bucket(s.bucket).SignedURL(name, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: expires,
		QueryParameters: map[string][]string{
			"response-content-disposition": {"attachment"},
		},
	})
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
