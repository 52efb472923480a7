package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/bacondistance/internal/config"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestFileStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "releases/dataset.json", strings.NewReader(`{"v":1}`)))
	rc, err := store.Get(ctx, "releases/dataset.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, readAll(t, rc))

	require.NoError(t, store.Put(ctx, "releases/dataset.json", strings.NewReader(`{"v":2}`)))
	rc, err = store.Get(ctx, "releases/dataset.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, readAll(t, rc))
}

func TestFileStore_MissingKey(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).Get(context.Background(), "nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_KeysStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)

	path, err := store.path("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, root), path)

	_, err = store.path("/")
	assert.Error(t, err)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_PutGetWithPrefix(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{}
	store := NewS3StoreWithClient(fake, "imdb", "bacon/v1")

	require.NoError(t, store.Put(ctx, "dataset.json", strings.NewReader("payload")))
	assert.Contains(t, fake.objects, "imdb/bacon/v1/dataset.json")

	rc, err := store.Get(ctx, "dataset.json")
	require.NoError(t, err)
	assert.Equal(t, "payload", readAll(t, rc))
}

func TestS3Store_Errors(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{putErr: errors.New("access denied")}
	store := NewS3StoreWithClient(fake, "imdb", "")

	_, err := store.Get(ctx, "dataset.json")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Put(ctx, "dataset.json", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.StorageConfig{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = New(ctx, config.StorageConfig{Backend: "s3"})
	assert.Error(t, err, "bucket is required")

	_, err = New(ctx, config.StorageConfig{Backend: "gcs"})
	assert.Error(t, err)
}
