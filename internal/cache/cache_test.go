package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedArticle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Minute), mr
}

func TestKeys(t *testing.T) {
	t.Parallel()
	id := uuid.MustParse("7f0c3b9e-8a57-4c2e-9d42-3d3c1f0f5a11")
	assert.Equal(t, "article:7f0c3b9e-8a57-4c2e-9d42-3d3c1f0f5a11", ArticleKey(id))
	assert.Equal(t, "article:7f0c3b9e-8a57-4c2e-9d42-3d3c1f0f5a11:comments", ArticleCommentsKey(id))
}

func TestNewClient_URL(t *testing.T) {
	client, err := NewClient("redis://localhost:6390/2")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	assert.Equal(t, "localhost:6390", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)

	_, err = NewClient("redis://localhost:6379/notadb")
	assert.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, Connect(addr))
}

func TestStore_SetGetJSON(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	var out cachedArticle
	found, err := store.GetJSON(ctx, "article:missing", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetJSON(ctx, "article:1", cachedArticle{ID: "1", Title: "Hello"}))
	assert.Equal(t, time.Minute, mr.TTL("article:1"))

	found, err = store.GetJSON(ctx, "article:1", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Hello", out.Title)
}

func TestStore_AsideFetchesOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedArticle) func() error {
		return func() error {
			calls++
			*dest = cachedArticle{ID: "1", Title: "From DB"}
			return nil
		}
	}

	var first cachedArticle
	require.NoError(t, store.Aside(ctx, "article", "article:1", &first, fetch(&first)))
	var second cachedArticle
	require.NoError(t, store.Aside(ctx, "article", "article:1", &second, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "From DB", second.Title)
}

func TestStore_AsidePropagatesFetchError(t *testing.T) {
	store, mr := newTestStore(t)
	boom := errors.New("boom")

	var out cachedArticle
	err := store.Aside(context.Background(), "article", "article:2", &out, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("article:2"))
}

func TestStore_AsideSurvivesRedisOutage(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	var out cachedArticle
	err := store.Aside(context.Background(), "article", "article:3", &out, func() error {
		out = cachedArticle{ID: "3"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "3", out.ID)
}

func TestStore_Invalidate(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("article:1", "{}"))
	require.NoError(t, mr.Set("article:1:comments", "[]"))

	store.Invalidate(ctx, "article:1", "article:1:comments")
	assert.False(t, mr.Exists("article:1"))
	assert.False(t, mr.Exists("article:1:comments"))
}

func TestStore_NilClientIsNoop(t *testing.T) {
	store := NewStore(nil, 0)
	ctx := context.Background()

	var out cachedArticle
	found, err := store.GetJSON(ctx, "k", &out)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, store.SetJSON(ctx, "k", out))
	store.Invalidate(ctx, "k")

	fetched := false
	require.NoError(t, store.Aside(ctx, "article", "k", &out, func() error {
		fetched = true
		return nil
	}))
	assert.True(t, fetched)
}
