package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedArticle struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestGetSetJSON(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	var missing cachedArticle
	found, err := GetJSON(ctx, ArticleKey("nope"), &missing)
	require.NoError(t, err)
	assert.False(t, found)

	want := cachedArticle{Slug: "hello-go", Title: "Hello Go"}
	require.NoError(t, SetJSON(ctx, ArticleKey("hello-go"), want, ArticleTTL))

	var got cachedArticle
	found, err = GetJSON(ctx, ArticleKey("hello-go"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestCacheAside(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedArticle) func() error {
		return func() error {
			calls++
			*dest = cachedArticle{Slug: "fresh", Title: "Fresh"}
			return nil
		}
	}

	var first cachedArticle
	require.NoError(t, CacheAside(ctx, ArticleKey("fresh"), &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Fresh", first.Title)

	// the second read is served from the cache
	var second cachedArticle
	require.NoError(t, CacheAside(ctx, ArticleKey("fresh"), &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Fresh", second.Title)
}

func TestInvalidate(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, ArticleKey("stale"), cachedArticle{Slug: "stale"}, time.Minute))
	InvalidateArticle(ctx, "stale")

	var got cachedArticle
	found, err := GetJSON(ctx, ArticleKey("stale"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNilClientIsNoOp(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, TagsKey, []string{"golang"}, TagsTTL))

	var tags []string
	found, err := GetJSON(ctx, TagsKey, &tags)
	require.NoError(t, err)
	assert.False(t, found)

	// cache-aside always falls through to the fetch
	calls := 0
	require.NoError(t, CacheAside(ctx, TagsKey, &tags, TagsTTL, func() error {
		calls++
		tags = []string{"golang"}
		return nil
	}))
	assert.Equal(t, 1, calls)
	InvalidateTags(ctx)
}
