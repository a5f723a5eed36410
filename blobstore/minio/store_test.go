package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/blobstore"
)

// TestStore_Integration requires a running MinIO instance.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	ctx := context.Background()

	store, err := Dial(ctx, Config{
		Endpoint:     endpoint,
		Bucket:       "test-vecproof",
		Prefix:       "runs/",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		CreateBucket: true,
	})
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "r1/manifest.json", data))

	got, err := blobstore.ReadAll(ctx, store, "r1/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	blob, err := store.Open(ctx, "r1/manifest.json")
	require.NoError(t, err)
	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "r1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1/manifest.json"}, names)

	require.ErrorIs(t, store.PutIfNotExists(ctx, "r1/manifest.json", data), blobstore.ErrExists)

	require.NoError(t, store.Delete(ctx, "r1/manifest.json"))
	require.NoError(t, store.Delete(ctx, "r1/manifest.json"))

	_, err = store.Open(ctx, "r1/manifest.json")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Names(t *testing.T) {
	s := NewStore(nil, "b", "runs/")
	assert.Equal(t, "runs/r1/a.vpar", s.key("r1/a.vpar"))
	assert.Equal(t, "r1/a.vpar", s.name("runs/r1/a.vpar"))

	bare := NewStore(nil, "b", "")
	assert.Equal(t, "x", bare.key("x"))
	assert.Equal(t, "x", bare.name("x"))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "x"))

	err := translate(errorResponse("NoSuchKey"), "x")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	err = translate(errorResponse("PreconditionFailed"), "x")
	assert.ErrorIs(t, err, blobstore.ErrExists)

	err = translate(errorResponse("AccessDenied"), "x")
	assert.NotErrorIs(t, err, blobstore.ErrNotFound)
}

func errorResponse(code string) error {
	return minio.ErrorResponse{Code: code}
}
