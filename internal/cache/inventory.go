package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ArticleKeyPrefix = "article:%s"
	ProfileKeyPrefix = "profile:%s"
	TagsKey          = "tags:all"
)

const (
	ArticleTTL = 10 * time.Minute
	ProfileTTL = 5 * time.Minute
	TagsTTL    = 30 * time.Minute
)

func ArticleKey(slug string) string {
	return fmt.Sprintf(ArticleKeyPrefix, slug)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, username)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateArticle(ctx context.Context, slug string) {
	Invalidate(ctx, ArticleKey(slug))
}

func InvalidateProfile(ctx context.Context, username string) {
	Invalidate(ctx, ProfileKey(username))
}

func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagsKey)
}
