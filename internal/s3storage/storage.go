package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bridgesync/bridgesync/internal/config"
	"github.com/bridgesync/bridgesync/internal/model"
)

// ErrObjectExists is returned by Put when overwrite is false and the key is
// already taken.
var ErrObjectExists = errors.New("object already exists")

// Storage wraps MinIO/S3 interactions for uploaded audio blobs.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client: client,
		bucket: cfg.AudioBucket,
		region: cfg.S3Region,
	}, nil
}

// EnsureBucket makes sure the audio bucket exists before use.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put writes a blob under objectKey. With overwrite false an existing object
// under the same key is rejected with ErrObjectExists; with overwrite true
// the write replaces whatever was there (upsert semantics).
func (s *Storage) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string, overwrite bool) error {
	if !overwrite {
		_, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
		if err == nil {
			return fmt.Errorf("put %s: %w", objectKey, ErrObjectExists)
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return fmt.Errorf("stat %s: %w", objectKey, err)
		}
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, opts); err != nil {
		return fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return nil
}

// SignURL returns a presigned GET URL for the object, valid for ttl.
func (s *Storage) SignURL(ctx context.Context, objectKey string, ttl time.Duration) (model.SignedAccessURL, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, ttl, url.Values{})
	if err != nil {
		return model.SignedAccessURL{}, fmt.Errorf("presign object %s: %w", objectKey, err)
	}
	return model.SignedAccessURL{
		Key:       objectKey,
		URL:       u.String(),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}
