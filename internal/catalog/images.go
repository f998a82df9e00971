package catalog

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

const defaultImageURLTTL = 15 * time.Minute

// MinIOImages stores product images in a single MinIO bucket.
type MinIOImages struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// NewMinIOImages constructs an adapter. ttl bounds presigned URL lifetime.
func NewMinIOImages(client *minio.Client, bucket string, ttl time.Duration) *MinIOImages {
	if ttl <= 0 {
		ttl = defaultImageURLTTL
	}
	return &MinIOImages{client: client, bucket: bucket, ttl: ttl}
}

func (s *MinIOImages) Put(ctx context.Context, object string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	return nil
}

func (s *MinIOImages) Remove(ctx context.Context, object string) error {
	return s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{})
}

// URL returns a presigned GET URL for object and its expiry.
func (s *MinIOImages) URL(ctx context.Context, object string) (string, time.Time, error) {
	expires := time.Now().Add(s.ttl)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, object, s.ttl, make(url.Values))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign image: %w", err)
	}
	return u.String(), expires, nil
}
