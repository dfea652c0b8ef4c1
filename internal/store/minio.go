package store

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/ayush/taskmanager/internal/apperr"
)

// MinioPictureStore keeps profile pictures as objects in one bucket.
type MinioPictureStore struct {
	client *minio.Client
	bucket string
}

// NewMinioPictureStore connects to MinIO and creates the bucket on first use.
func NewMinioPictureStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioPictureStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "minio bucket %q", bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "minio make bucket %q", bucket)
		}
	}
	return &MinioPictureStore{client: client, bucket: bucket}, nil
}

func (s *MinioPictureStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "private, max-age=60",
	})
	return errors.Wrapf(err, "minio put %s", key)
}

// Download returns apperr.ErrNotFound when the object is gone.
func (s *MinioPictureStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", minioErr(err, "minio get "+key)
	}
	defer obj.Close()

	// GetObject is lazy; Stat is the first call that reaches the server.
	info, err := obj.Stat()
	if err != nil {
		return nil, "", minioErr(err, "minio stat "+key)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", errors.Wrapf(err, "minio read %s", key)
	}
	return data, info.ContentType, nil
}

// Remove deletes the object. Removing a missing key is not an error.
func (s *MinioPictureStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err = minioErr(err, "minio remove "+key); errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}

func minioErr(err error, op string) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return apperr.ErrNotFound
	}
	return errors.Wrap(err, op)
}
