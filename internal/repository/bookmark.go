package repository

import (
	"context"

	"haven/internal/models"

	"gorm.io/gorm"
)

// BookmarkRepository defines persistence operations for read-later bookmarks.
type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *models.Bookmark) error
	DeleteByUserAndArticle(ctx context.Context, userID, articleID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Bookmark, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

// NewBookmarkRepository returns a new BookmarkRepository implementation.
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

// Create always inserts a fresh row. Bookmarking twice yields two rows;
// removal clears them all at once.
func (r *bookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	if err := r.db.WithContext(ctx).Create(bookmark).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteByUserAndArticle removes every bookmark row the user holds on the
// article. The bool reports whether anything was deleted.
func (r *bookmarkRepository) DeleteByUserAndArticle(ctx context.Context, userID, articleID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.Bookmark{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Bookmark, error) {
	var bookmarks []*models.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Article").
		Preload("Article.Author").
		Preload("Article.Author.User").
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}
