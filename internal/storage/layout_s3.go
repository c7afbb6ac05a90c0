package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"navio/api/internal/config"
	"navio/api/internal/repository"
)

// S3LayoutStore keeps the layout as one object in an S3-compatible bucket,
// for deployments where the API container has no durable disk.
type S3LayoutStore struct {
	client *minio.Client
	cfg    config.S3Config
}

var _ LayoutStore = (*S3LayoutStore)(nil)

func NewS3LayoutStore(cfg config.S3Config) (*S3LayoutStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}

	return &S3LayoutStore{client: client, cfg: cfg}, nil
}

func (s *S3LayoutStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

func (s *S3LayoutStore) Get(ctx context.Context) (json.RawMessage, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, s.cfg.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get layout object: %w", err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		var respErr minio.ErrorResponse
		if errors.As(err, &respErr) && respErr.Code == "NoSuchKey" {
			return DefaultLayout(), nil
		}
		return nil, fmt.Errorf("read layout object: %w", err)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: s3://%s/%s", repository.ErrCorruptState, s.cfg.Bucket, s.cfg.Object)
	}
	return raw, nil
}

func (s *S3LayoutStore) Put(ctx context.Context, layout json.RawMessage) error {
	if err := validateLayout(layout); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, s.cfg.Object,
		bytes.NewReader(layout), int64(len(layout)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put layout object: %w", err)
	}
	return nil
}
