package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

// MinioStore keeps each key as one JSON object in a bucket.
type MinioStore struct {
	client        *minio.Client
	bucketName    string
	region        string
	maxValueBytes int
}

// NewMinio buat koneksi MinIO dan pastikan bucket ada
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, maxValueBytes int) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: cli, bucketName: bucket, region: region, maxValueBytes: maxValueBytes}, nil
}

func objectName(key string) string { return key + ".json" }

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr("get", key, err)
	}
	defer obj.Close()

	// GetObject is lazy; the first read surfaces a missing key.
	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr("get", key, err)
	}
	return b, nil
}

func (s *MinioStore) Set(ctx context.Context, key string, value []byte) error {
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return fmt.Errorf("minio set %s (%d bytes): %w", key, len(value), domain.ErrCapacityExceeded)
	}
	_, err := s.client.PutObject(ctx, s.bucketName, objectName(key), bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return s.mapErr("set", key, err)
	}
	return nil
}

func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

func (s *MinioStore) mapErr(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"):
		return domain.ErrNotFound
	case resp.Code == "EntityTooLarge" || resp.StatusCode == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("minio %s %s: %w: %v", op, key, domain.ErrCapacityExceeded, err)
	default:
		return fmt.Errorf("minio %s %s: %w", op, key, err)
	}
}
