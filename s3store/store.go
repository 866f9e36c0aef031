// Package s3store provides an S3-compatible blob store for filebox.
// Blobs are objects named prefix/filename inside a single bucket.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/filebox"
)

// Object is a readable handle on a stored object.
type Object interface {
	io.ReadSeekCloser
	Stat() (minio.ObjectInfo, error)
}

// Client is the subset of the minio client used by Store.
type Client interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (Object, error)
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// Config holds connection settings for an S3-compatible endpoint.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

// Store provides S3 storage operations.
type Store struct {
	client Client
	bucket string
	prefix string
}

// New connects to the endpoint described by cfg.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("new s3 store: endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new s3 store: %w", err)
	}

	slog.Debug("s3 store initialized", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket, "prefix", cfg.Prefix)

	return NewWithClient(minioClient{client}, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient builds a Store on an existing client.
func NewWithClient(client Client, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}

	slog.Info("created bucket", "bucket", s.bucket)
	return nil
}

func (s *Store) key(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return path.Join(s.prefix, filename)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Get opens the object for filename. Returns filebox.ErrNotFound if it does
// not exist.
func (s *Store) Get(ctx context.Context, filename string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key(filename), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, filebox.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy; Stat forces the request so a missing key surfaces here.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, filebox.ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return obj, nil
}

// Write uploads content as a single object. S3 replaces objects
// atomically, so readers see either the old or the new content.
func (s *Store) Write(ctx context.Context, filename string, content io.Reader) (filebox.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return filebox.SaveResult{}, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, s.key(filename), content, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return filebox.SaveResult{}, fmt.Errorf("failed to put object: %w", err)
	}

	return filebox.SaveResult{BytesWritten: info.Size, Etag: strings.Trim(info.ETag, `"`)}, nil
}

// Delete removes the object. S3 deletes are idempotent, so presence is
// checked first to report filebox.ErrNotFound.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := s.Exists(ctx, filename)
	if err != nil {
		return err
	}
	if !exists {
		return filebox.ErrNotFound
	}

	if err := s.client.RemoveObject(ctx, s.bucket, s.key(filename), minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return filebox.ErrNotFound
		}
		return fmt.Errorf("failed to remove object: %w", err)
	}

	return nil
}

// Exists reports whether an object is stored under filename.
func (s *Store) Exists(ctx context.Context, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, s.key(filename), minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}

	return true, nil
}

// List returns the objects directly under the prefix. Keys nested deeper
// are not blobs of this store and are skipped.
func (s *Store) List(ctx context.Context) ([]filebox.BlobEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}

	var entries []filebox.BlobEntry
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: listPrefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}

		name := strings.TrimPrefix(obj.Key, listPrefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}

		entries = append(entries, filebox.BlobEntry{
			Filename: name,
			Size:     obj.Size,
			ModTime:  obj.LastModified,
		})
	}

	return entries, nil
}

type minioClient struct {
	*minio.Client
}

func (c minioClient) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (Object, error) {
	obj, err := c.Client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
