package s3store_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/sagarc03/filebox"
	"github.com/sagarc03/filebox/s3store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	*bytes.Reader
	info    minio.ObjectInfo
	statErr error
	closed  bool
}

func (o *fakeObject) Close() error {
	o.closed = true
	return nil
}

func (o *fakeObject) Stat() (minio.ObjectInfo, error) {
	return o.info, o.statErr
}

type storedObject struct {
	data    []byte
	modTime time.Time
}

// fakeClient is an in-memory bucket.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string]storedObject
	buckets map[string]bool
	putErr  error
	lastObj *fakeObject
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		objects: map[string]storedObject{},
		buckets: map[string]bool{},
	}
}

func noSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
}

func (c *fakeClient) PutObject(_ context.Context, _, key string, reader io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if c.putErr != nil {
		return minio.UploadInfo{}, c.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = storedObject{data: data, modTime: time.Now()}
	return minio.UploadInfo{Key: key, Size: int64(len(data)), ETag: `"etag-` + key + `"`}, nil
}

func (c *fakeClient) GetObject(_ context.Context, _, key string, _ minio.GetObjectOptions) (s3store.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[key]
	fo := &fakeObject{Reader: bytes.NewReader(obj.data)}
	if !ok {
		fo.statErr = noSuchKey()
	} else {
		fo.info = minio.ObjectInfo{Key: key, Size: int64(len(obj.data))}
	}
	c.lastObj = fo
	return fo, nil
}

func (c *fakeClient) StatObject(_ context.Context, _, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[key]
	if !ok {
		return minio.ObjectInfo{}, noSuchKey()
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(obj.data))}, nil
}

func (c *fakeClient) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, key)
	return nil
}

func (c *fakeClient) ListObjects(_ context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	c.mu.Lock()
	keys := make([]string, 0, len(c.objects))
	for k := range c.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	infos := make([]minio.ObjectInfo, 0, len(keys))
	for _, k := range keys {
		if len(k) < len(opts.Prefix) || k[:len(opts.Prefix)] != opts.Prefix {
			continue
		}
		obj := c.objects[k]
		infos = append(infos, minio.ObjectInfo{Key: k, Size: int64(len(obj.data)), LastModified: obj.modTime})
	}
	c.mu.Unlock()

	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func (c *fakeClient) BucketExists(_ context.Context, bucket string) (bool, error) {
	return c.buckets[bucket], nil
}

func (c *fakeClient) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	c.buckets[bucket] = true
	return nil
}

func TestStore_WriteGet(t *testing.T) {
	client := newFakeClient()
	store := s3store.NewWithClient(client, "files", "uploads/")
	ctx := context.Background()

	result, err := store.Write(ctx, "a.txt", bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.BytesWritten)
	assert.Equal(t, "etag-uploads/a.txt", result.Etag)

	_, stored := client.objects["uploads/a.txt"]
	assert.True(t, stored, "key must carry the prefix")

	rc, err := store.Get(ctx, "a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NoError(t, rc.Close())
}

func TestStore_GetNotFound(t *testing.T) {
	client := newFakeClient()
	store := s3store.NewWithClient(client, "files", "")

	_, err := store.Get(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, filebox.ErrNotFound)
	require.NotNil(t, client.lastObj)
	assert.True(t, client.lastObj.closed)
}

func TestStore_WriteError(t *testing.T) {
	client := newFakeClient()
	client.putErr = errors.New("access denied")
	store := s3store.NewWithClient(client, "files", "")

	_, err := store.Write(context.Background(), "a.txt", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, client.putErr)
}

func TestStore_Delete(t *testing.T) {
	client := newFakeClient()
	store := s3store.NewWithClient(client, "files", "")
	ctx := context.Background()

	_, err := store.Write(ctx, "a.txt", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "a.txt"))
	assert.ErrorIs(t, store.Delete(ctx, "a.txt"), filebox.ErrNotFound)

	ok, err := store.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_List(t *testing.T) {
	client := newFakeClient()
	store := s3store.NewWithClient(client, "files", "box")
	ctx := context.Background()

	for _, name := range []string{"b.txt", "a.txt"} {
		_, err := store.Write(ctx, name, bytes.NewReader([]byte(name)))
		require.NoError(t, err)
	}
	client.objects["box/nested/c.txt"] = storedObject{data: []byte("c")}
	client.objects["other/d.txt"] = storedObject{data: []byte("d")}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Filename)
	assert.Equal(t, int64(5), entries[0].Size)
	assert.Equal(t, "b.txt", entries[1].Filename)
}

func TestStore_ContextCanceled(t *testing.T) {
	store := s3store.NewWithClient(newFakeClient(), "files", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Write(ctx, "a.txt", bytes.NewReader(nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Delete(ctx, "a.txt"), context.Canceled)
	_, err = store.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_EnsureBucket(t *testing.T) {
	client := newFakeClient()
	store := s3store.NewWithClient(client, "files", "")

	require.NoError(t, store.EnsureBucket(context.Background()))
	assert.True(t, client.buckets["files"])
	require.NoError(t, store.EnsureBucket(context.Background()))
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := s3store.New(s3store.Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
