package memstore_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quaelen/pannier"
	"github.com/quaelen/pannier/memstore"
)

func TestStore_PutGet(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	info, err := store.Put(ctx, "docs/a.txt", "text/plain", strings.NewReader("hello"))
	assert.NoError(t, err)
	assert.Equal(t, "docs/a.txt", info.Key)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, 64, len(info.ETag))
	assert.False(t, info.UploadedAt.IsZero())

	got, rc, err := store.Get(ctx, "docs/a.txt")
	assert.NoError(t, err)
	defer func() { _ = rc.Close() }()
	assert.Equal(t, info.ETag, got.ETag)

	data, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestStore_PutOverwrites(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	first, err := store.Put(ctx, "a.txt", "text/plain", strings.NewReader("one"))
	assert.NoError(t, err)
	second, err := store.Put(ctx, "a.txt", "text/plain", strings.NewReader("two"))
	assert.NoError(t, err)
	assert.NotEqual(t, first.ETag, second.ETag)

	_, rc, err := store.Get(ctx, "a.txt")
	assert.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(data))
}

func TestStore_Get_NotFound(t *testing.T) {
	store := memstore.New()

	_, _, err := store.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, pannier.ErrNotFound)
}

func TestStore_Delete_AbsentKeyIsNoop(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	assert.NoError(t, store.Delete(ctx, "missing"))

	_, err := store.Put(ctx, "a.txt", "text/plain", strings.NewReader("x"))
	assert.NoError(t, err)
	assert.NoError(t, store.Delete(ctx, "a.txt"))
	_, _, err = store.Get(ctx, "a.txt")
	assert.ErrorIs(t, err, pannier.ErrNotFound)
}

func TestStore_List_Delimited(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	for _, key := range []string{"a.txt", "photos/1.jpg", "photos/deep/2.jpg", "docs/d.pdf"} {
		_, err := store.Put(ctx, key, "application/octet-stream", strings.NewReader("x"))
		assert.NoError(t, err)
	}

	listing, err := store.List(ctx, "", "/")
	assert.NoError(t, err)
	assert.Equal(t, []string{"docs/", "photos/"}, listing.CommonPrefixes)
	assert.Len(t, listing.Objects, 1)
	assert.Equal(t, "a.txt", listing.Objects[0].Key)

	listing, err = store.List(ctx, "photos/", "/")
	assert.NoError(t, err)
	assert.Equal(t, []string{"photos/deep/"}, listing.CommonPrefixes)
	assert.Len(t, listing.Objects, 1)
}

func TestStore_ContextCanceled(t *testing.T) {
	store := memstore.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "a", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.List(ctx, "", "/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := "k" + strings.Repeat("x", n%5)
			_, _ = store.Put(ctx, key, "text/plain", strings.NewReader("v"))
			_, _ = store.List(ctx, "", "/")
		}(i)
	}
	wg.Wait()
}
