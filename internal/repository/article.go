// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"haven/internal/cache"
	"haven/internal/models"

	"gorm.io/gorm"
)

// ArticleRepository defines the interface for article data operations.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article, tagTexts []string) error
	GetBySlug(ctx context.Context, slug string, currentProfileID uint) (*models.Article, error)
	List(ctx context.Context, tag string, limit, offset int, currentProfileID uint) ([]*models.Article, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int, currentProfileID uint) ([]*models.Article, int64, error)
	Update(ctx context.Context, article *models.Article, tagTexts []string) error
	Delete(ctx context.Context, article *models.Article) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	IsLiked(ctx context.Context, userID, articleID uint) (bool, error)
	IsDisliked(ctx context.Context, userID, articleID uint) (bool, error)
	Like(ctx context.Context, userID, articleID uint) error
	Unlike(ctx context.Context, userID, articleID uint) error
	Dislike(ctx context.Context, userID, articleID uint) error
	Undislike(ctx context.Context, userID, articleID uint) error

	ListTags(ctx context.Context) ([]*models.Tag, error)
}

// articleRepository implements ArticleRepository
type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// applyArticleDetails adds subqueries to fetch reaction counts, the favorite
// count, the live average rating and the favorited flag in a single query.
func (r *articleRepository) applyArticleDetails(db *gorm.DB, currentProfileID uint) *gorm.DB {
	selectQuery := "articles.*, " +
		"(SELECT COUNT(*) FROM article_likes WHERE article_likes.article_id = articles.id) as likes_count, " +
		"(SELECT COUNT(*) FROM article_dislikes WHERE article_dislikes.article_id = articles.id) as dislikes_count, " +
		"(SELECT COUNT(*) FROM profile_favorites WHERE profile_favorites.article_id = articles.id) as favorites_count, " +
		"(SELECT COALESCE(AVG(ratings.stars), 0) FROM ratings WHERE ratings.article_id = articles.id) as average_rating"

	if currentProfileID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM profile_favorites WHERE profile_favorites.article_id = articles.id AND profile_favorites.profile_id = ?) as favorited", currentProfileID)
	}

	return db.Select(selectQuery + ", FALSE as favorited")
}

// fillTagList flattens the Tags association into the response tag list.
func fillTagList(articles ...*models.Article) {
	for _, a := range articles {
		a.TagList = make([]string, 0, len(a.Tags))
		for _, t := range a.Tags {
			a.TagList = append(a.TagList, t.Text)
		}
	}
}

// syncTags resolves tag texts to rows (get-or-create) and replaces the
// article's tag association with them.
func (r *articleRepository) syncTags(tx *gorm.DB, article *models.Article, tagTexts []string) error {
	tags := make([]*models.Tag, 0, len(tagTexts))
	seen := map[string]struct{}{}
	for _, text := range tagTexts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(text)]; dup {
			continue
		}
		seen[strings.ToLower(text)] = struct{}{}

		var tag models.Tag
		err := tx.Where("text = ?", text).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Text: text, Slug: tagSlug(text)}
			if err := tx.Create(&tag).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		tags = append(tags, &tag)
	}

	if err := tx.Model(article).Association("Tags").Replace(tags); err != nil {
		return err
	}
	article.Tags = tags
	return nil
}

// tagSlug lowercases and hyphenates tag text for the tag's own slug.
func tagSlug(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), "-"))
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article, tagTexts []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Create(article).Error; err != nil {
			return err
		}
		return r.syncTags(tx, article, tagTexts)
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Article slug already exists")
		}
		return models.NewInternalError(err)
	}
	fillTagList(article)
	cache.InvalidateTags(ctx)
	return nil
}

func (r *articleRepository) GetBySlug(ctx context.Context, slug string, currentProfileID uint) (*models.Article, error) {
	var article models.Article

	fetch := func() error {
		err := r.applyArticleDetails(r.db.WithContext(ctx), currentProfileID).
			Preload("Author").
			Preload("Author.User").
			Preload("Tags").
			Where("articles.slug = ?", slug).
			First(&article).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Article", slug)
			}
			return models.NewInternalError(err)
		}
		fillTagList(&article)
		return nil
	}

	var err error
	if currentProfileID == 0 {
		// Anonymous reads share one cache entry; favorited is always false.
		err = cache.CacheAside(ctx, cache.ArticleKey(slug), &article, cache.ArticleTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, tag string, limit, offset int, currentProfileID uint) ([]*models.Article, int64, error) {
	var articles []*models.Article

	base := r.db.WithContext(ctx).Model(&models.Article{})
	if tag != "" {
		base = base.
			Joins("JOIN article_tags ON article_tags.article_id = articles.id").
			Joins("JOIN tags ON tags.id = article_tags.tag_id").
			Where("LOWER(tags.text) = LOWER(?)", tag)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	err := r.applyArticleDetails(base, currentProfileID).
		Preload("Author").
		Preload("Author.User").
		Preload("Tags").
		Order("articles.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	fillTagList(articles...)
	return articles, total, nil
}

func (r *articleRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, currentProfileID uint) ([]*models.Article, int64, error) {
	var articles []*models.Article

	base := r.db.WithContext(ctx).Model(&models.Article{}).Where("articles.author_id = ?", authorID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	err := r.applyArticleDetails(base, currentProfileID).
		Preload("Author").
		Preload("Author.User").
		Preload("Tags").
		Order("articles.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	fillTagList(articles...)
	return articles, total, nil
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article, tagTexts []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Save(article).Error; err != nil {
			return err
		}
		if tagTexts != nil {
			return r.syncTags(tx, article, tagTexts)
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	fillTagList(article)
	cache.InvalidateArticle(ctx, article.Slug)
	cache.InvalidateTags(ctx)
	return nil
}

// Delete removes the article and everything hanging off it: comments with
// their reactions and edit histories, ratings, bookmarks, favorites,
// reactions and tag links. One transaction so a half-deleted article is
// never observable.
func (r *articleRepository) Delete(ctx context.Context, article *models.Article) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("article_id = ?", article.ID)

		if err := tx.Exec("DELETE FROM comment_likes WHERE comment_id IN (?)", commentIDs).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM comment_dislikes WHERE comment_id IN (?)", commentIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentEditHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("article_id = ?", article.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM profile_favorites WHERE article_id = ?", article.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM article_likes WHERE article_id = ?", article.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM article_dislikes WHERE article_id = ?", article.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM article_tags WHERE article_id = ?", article.ID).Error; err != nil {
			return err
		}
		// Hard delete: the unique index on slug covers soft-deleted rows,
		// so a tombstone would block the slug forever.
		return tx.Unscoped().Delete(article).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateArticle(ctx, article.Slug)
	cache.InvalidateTags(ctx)
	return nil
}

func (r *articleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *articleRepository) IsLiked(ctx context.Context, userID, articleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("article_likes").
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *articleRepository) IsDisliked(ctx context.Context, userID, articleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("article_dislikes").
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *articleRepository) Like(ctx context.Context, userID, articleID uint) error {
	// INSERT ... ON CONFLICT DO NOTHING is atomic under concurrent taps
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO article_likes (user_id, article_id)
		 VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		userID, articleID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	return nil
}

func (r *articleRepository) Unlike(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`DELETE FROM article_likes WHERE user_id = ? AND article_id = ?`,
		userID, articleID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *articleRepository) Dislike(ctx context.Context, userID, articleID uint) error {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO article_dislikes (user_id, article_id)
		 VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		userID, articleID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	return nil
}

func (r *articleRepository) Undislike(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`DELETE FROM article_dislikes WHERE user_id = ? AND article_id = ?`,
		userID, articleID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *articleRepository) ListTags(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := cache.CacheAside(ctx, cache.TagsKey, &tags, cache.TagsTTL, func() error {
		if err := r.db.WithContext(ctx).Order("text ASC").Find(&tags).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
