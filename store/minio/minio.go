// Package minio stores asset blobs as objects in an S3-compatible bucket via
// minio/minio-go. TTLs are ignored; use bucket lifecycle rules for expiry.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/unkn0wn-root/assetcache/store"
)

type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ store.Store = (*Minio)(nil)

type Config struct {
	// Client, when set, is used as is and the connection fields are ignored.
	Client *minio.Client

	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool

	Bucket string // required
	Prefix string // optional object key prefix, e.g. "assets"
}

func New(cfg Config) (*Minio, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("minio store: bucket is required")
	}
	client := cfg.Client
	if client == nil {
		if cfg.Endpoint == "" {
			return nil, errors.New("minio store: endpoint or client is required")
		}
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio store: create client: %w", err)
		}
	}
	return &Minio{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *Minio) object(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *Minio) Get(ctx context.Context, key string) ([]byte, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		_ = obj.Close()
	}()

	// GetObject is lazy; a missing object surfaces on first read.
	b, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *Minio) Set(ctx context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	_, err := s.client.PutObject(ctx, s.bucket, s.object(key), bytes.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Minio) Del(ctx context.Context, key string) error {
	// RemoveObject succeeds for missing objects.
	return s.client.RemoveObject(ctx, s.bucket, s.object(key), minio.RemoveObjectOptions{})
}

func (s *Minio) Close(context.Context) error { return nil }

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
