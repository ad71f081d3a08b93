package repository

import (
	"context"
	"testing"

	"haven/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleRepository_CreateAndGetBySlug(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "alice")
	createTestArticle(t, repo, author, "How to Train Gophers", "how-to-train-gophers", "golang", "Golang", "pets")

	article, err := repo.GetBySlug(ctx, "how-to-train-gophers", 0)
	require.NoError(t, err)
	assert.Equal(t, "How to Train Gophers", article.Title)
	assert.Equal(t, author.ID, article.AuthorID)
	assert.Equal(t, "alice", article.Author.User.Username)
	// duplicate tag differing only in case is collapsed
	assert.ElementsMatch(t, []string{"golang", "pets"}, article.TagList)
	assert.Equal(t, 0, article.LikesCount)
	assert.False(t, article.Favorited)
}

func TestArticleRepository_GetBySlug_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)

	_, err := repo.GetBySlug(context.Background(), "no-such-slug", 0)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestArticleRepository_DuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "alice")
	createTestArticle(t, repo, author, "First", "same-slug")

	dup := &models.Article{Title: "Second", Slug: "same-slug", Body: "b", AuthorID: author.ID}
	err := repo.Create(ctx, dup, nil)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestArticleRepository_SlugExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "alice")
	createTestArticle(t, repo, author, "Taken", "taken")

	exists, err := repo.SlugExists(ctx, "taken")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists(ctx, "free")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestArticleRepository_ListWithTagFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "alice")
	createTestArticle(t, repo, author, "Go Article", "go-article", "golang")
	createTestArticle(t, repo, author, "Food Article", "food-article", "food")
	createTestArticle(t, repo, author, "Both Article", "both-article", "golang", "food")

	articles, total, err := repo.List(ctx, "GOLANG", 10, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, articles, 2)

	articles, total, err = repo.List(ctx, "", 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, articles, 2)

	articles, total, err = repo.List(ctx, "missing", 10, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, articles)
}

func TestArticleRepository_ReactionCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	liker1, _ := createTestUser(t, db, "liker1")
	liker2, _ := createTestUser(t, db, "liker2")
	disliker, _ := createTestUser(t, db, "disliker")
	_, author := createTestUser(t, db, "author")
	article := createTestArticle(t, repo, author, "Divisive", "divisive")

	require.NoError(t, repo.Like(ctx, liker1.ID, article.ID))
	require.NoError(t, repo.Like(ctx, liker2.ID, article.ID))
	// double tap is a no-op at the storage level
	require.NoError(t, repo.Like(ctx, liker2.ID, article.ID))
	require.NoError(t, repo.Dislike(ctx, disliker.ID, article.ID))

	got, err := repo.GetBySlug(ctx, "divisive", author.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LikesCount)
	assert.Equal(t, 1, got.DislikesCount)

	liked, err := repo.IsLiked(ctx, liker1.ID, article.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, repo.Unlike(ctx, liker1.ID, article.ID))
	liked, err = repo.IsLiked(ctx, liker1.ID, article.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestArticleRepository_FavoritedFlag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	profileRepo := NewProfileRepository(db)
	ctx := context.Background()

	_, fan := createTestUser(t, db, "fan")
	_, other := createTestUser(t, db, "other")
	_, author := createTestUser(t, db, "author")
	article := createTestArticle(t, repo, author, "Popular", "popular")

	require.NoError(t, profileRepo.Favorite(ctx, fan.ID, article.ID))
	// favoriting twice leaves a single row
	require.NoError(t, profileRepo.Favorite(ctx, fan.ID, article.ID))

	got, err := repo.GetBySlug(ctx, "popular", fan.ID)
	require.NoError(t, err)
	assert.True(t, got.Favorited)
	assert.Equal(t, 1, got.FavoritesCount)

	got, err = repo.GetBySlug(ctx, "popular", other.ID)
	require.NoError(t, err)
	assert.False(t, got.Favorited)
	assert.Equal(t, 1, got.FavoritesCount)
}

func TestArticleRepository_UpdateReplacesTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "alice")
	article := createTestArticle(t, repo, author, "Original", "original", "old-tag")

	article.Title = "Updated"
	require.NoError(t, repo.Update(ctx, article, []string{"new-tag"}))

	got, err := repo.GetBySlug(ctx, "original", author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.Equal(t, []string{"new-tag"}, got.TagList)
}

func TestArticleRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	commentRepo := NewCommentRepository(db)
	profileRepo := NewProfileRepository(db)
	ctx := context.Background()

	reader, readerProfile := createTestUser(t, db, "reader")
	_, author := createTestUser(t, db, "author")
	article := createTestArticle(t, repo, author, "Doomed", "doomed", "golang")

	comment := &models.Comment{Body: "first", AuthorID: readerProfile.ID, ArticleID: article.ID}
	require.NoError(t, commentRepo.Create(ctx, comment))
	require.NoError(t, commentRepo.Like(ctx, reader.ID, comment.ID))
	require.NoError(t, commentRepo.UpdateBody(ctx, comment, "edited"))

	require.NoError(t, db.Create(&models.Rating{RaterID: readerProfile.ID, ArticleID: article.ID, Stars: 4}).Error)
	require.NoError(t, db.Create(&models.Bookmark{UserID: reader.ID, ArticleID: article.ID}).Error)
	require.NoError(t, profileRepo.Favorite(ctx, readerProfile.ID, article.ID))
	require.NoError(t, repo.Like(ctx, reader.ID, article.ID))

	require.NoError(t, repo.Delete(ctx, article))

	_, err := repo.GetBySlug(ctx, "doomed", 0)
	require.Error(t, err)

	exists, err := repo.SlugExists(ctx, "doomed")
	require.NoError(t, err)
	assert.False(t, exists, "slug must be free for reuse after delete")

	var tombstones int64
	require.NoError(t, db.Unscoped().Model(&models.Article{}).Count(&tombstones).Error)
	assert.Zero(t, tombstones, "no soft-deleted article row may remain under the unique slug index")

	var liveComments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&liveComments).Error)
	assert.Zero(t, liveComments)

	for _, table := range []string{
		"comment_likes", "comment_edit_histories",
		"ratings", "bookmarks", "profile_favorites", "article_likes", "article_tags",
	} {
		var count int64
		require.NoError(t, db.Table(table).Count(&count).Error, table)
		assert.Zero(t, count, "table %s should be empty after delete", table)
	}
}

func TestArticleRepository_ListTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "alice")
	createTestArticle(t, repo, author, "One", "one", "zebra", "apple")

	tags, err := repo.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "apple", tags[0].Text)
	assert.Equal(t, "zebra", tags[1].Text)
}
