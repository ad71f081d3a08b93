package repository

import (
	"context"
	"testing"

	"haven/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	articleRepo := NewArticleRepository(db)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "author")
	_, commenter := createTestUser(t, db, "commenter")
	article := createTestArticle(t, articleRepo, author, "Discussed", "discussed")

	first := &models.Comment{Body: "first", AuthorID: commenter.ID, ArticleID: article.ID}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, "commenter", first.Author.User.Username)

	second := &models.Comment{Body: "second", AuthorID: author.ID, ArticleID: article.ID}
	require.NoError(t, repo.Create(ctx, second))

	reply := &models.Comment{Body: "a reply", AuthorID: author.ID, ArticleID: article.ID, ParentID: &first.ID}
	require.NoError(t, repo.Create(ctx, reply))

	comments, err := repo.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	// flat list in creation order
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "second", comments[1].Body)
	assert.Equal(t, "a reply", comments[2].Body)
	require.NotNil(t, comments[2].ParentID)
	assert.Equal(t, first.ID, *comments[2].ParentID)
}

func TestCommentRepository_UpdateBodyArchivesHistory(t *testing.T) {
	db := setupTestDB(t)
	articleRepo := NewArticleRepository(db)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	_, author := createTestUser(t, db, "author")
	article := createTestArticle(t, articleRepo, author, "Edited", "edited")

	comment := &models.Comment{Body: "v1", AuthorID: author.ID, ArticleID: article.ID}
	require.NoError(t, repo.Create(ctx, comment))

	require.NoError(t, repo.UpdateBody(ctx, comment, "v2"))
	require.NoError(t, repo.UpdateBody(ctx, comment, "v3"))

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "v3", got.Body)

	history, err := repo.ListHistory(ctx, comment.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// each edit archives the pre-edit body, oldest first
	assert.Equal(t, "v1", history[0].Body)
	assert.Equal(t, "v2", history[1].Body)
}

func TestCommentRepository_DeleteSubtree(t *testing.T) {
	db := setupTestDB(t)
	articleRepo := NewArticleRepository(db)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	liker, _ := createTestUser(t, db, "liker")
	_, author := createTestUser(t, db, "author")
	article := createTestArticle(t, articleRepo, author, "Threaded", "threaded")

	root := &models.Comment{Body: "root", AuthorID: author.ID, ArticleID: article.ID}
	require.NoError(t, repo.Create(ctx, root))
	child := &models.Comment{Body: "child", AuthorID: author.ID, ArticleID: article.ID, ParentID: &root.ID}
	require.NoError(t, repo.Create(ctx, child))
	grandchild := &models.Comment{Body: "grandchild", AuthorID: author.ID, ArticleID: article.ID, ParentID: &child.ID}
	require.NoError(t, repo.Create(ctx, grandchild))
	bystander := &models.Comment{Body: "bystander", AuthorID: author.ID, ArticleID: article.ID}
	require.NoError(t, repo.Create(ctx, bystander))

	require.NoError(t, repo.Like(ctx, liker.ID, grandchild.ID))
	require.NoError(t, repo.UpdateBody(ctx, child, "child v2"))

	require.NoError(t, repo.Delete(ctx, root.ID))

	comments, err := repo.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "bystander", comments[0].Body)

	var likeCount int64
	require.NoError(t, db.Table("comment_likes").Count(&likeCount).Error)
	assert.Zero(t, likeCount)

	history, err := repo.ListHistory(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCommentRepository_ReactionCounts(t *testing.T) {
	db := setupTestDB(t)
	articleRepo := NewArticleRepository(db)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	fan1, _ := createTestUser(t, db, "fan1")
	fan2, _ := createTestUser(t, db, "fan2")
	_, author := createTestUser(t, db, "author")
	article := createTestArticle(t, articleRepo, author, "Rated Comments", "rated-comments")

	comment := &models.Comment{Body: "hot take", AuthorID: author.ID, ArticleID: article.ID}
	require.NoError(t, repo.Create(ctx, comment))

	require.NoError(t, repo.Like(ctx, fan1.ID, comment.ID))
	require.NoError(t, repo.Like(ctx, fan2.ID, comment.ID))
	require.NoError(t, repo.Dislike(ctx, fan1.ID, comment.ID))

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LikesCount)
	assert.Equal(t, 1, got.DislikesCount)

	require.NoError(t, repo.Undislike(ctx, fan1.ID, comment.ID))
	disliked, err := repo.IsDisliked(ctx, fan1.ID, comment.ID)
	require.NoError(t, err)
	assert.False(t, disliked)
}
