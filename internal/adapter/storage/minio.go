package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ecobank-loans/internal/domain/account"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var _ account.DocumentStore = (*DocumentStore)(nil)

// objectAPI is the part of *minio.Client the store uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type MinIOSettings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DocumentStore keeps KYC and project documents in a MinIO bucket.
type DocumentStore struct {
	client objectAPI
	bucket string
	log    *zap.Logger
}

// OpenMinIO connects and creates the bucket when missing.
func OpenMinIO(ctx context.Context, s MinIOSettings, log *zap.Logger) (*DocumentStore, error) {
	client, err := minio.New(s.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
		Secure: s.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	store := &DocumentStore{client: client, bucket: s.Bucket, log: log}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *DocumentStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	s.log.Info("bucket created", zap.String("bucket", s.bucket))
	return nil
}

// Put uploads under prefix/<uuid>-<filename> and returns that object key.
func (s *DocumentStore) Put(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := strings.Trim(prefix, "/") + "/" + uuid.NewString() + "-" + filename
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.log.Debug("object stored", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int64("size", size))
	return key, nil
}
