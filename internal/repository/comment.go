package repository

import (
	"context"
	"errors"

	"haven/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments, their
// reactions and edit histories.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID uint) ([]*models.Comment, error)
	UpdateBody(ctx context.Context, comment *models.Comment, newBody string) error
	Delete(ctx context.Context, id uint) error
	ListHistory(ctx context.Context, commentID uint) ([]*models.CommentEditHistory, error)

	IsLiked(ctx context.Context, userID, commentID uint) (bool, error)
	IsDisliked(ctx context.Context, userID, commentID uint) (bool, error)
	Like(ctx context.Context, userID, commentID uint) error
	Unlike(ctx context.Context, userID, commentID uint) error
	Dislike(ctx context.Context, userID, commentID uint) error
	Undislike(ctx context.Context, userID, commentID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// applyCommentDetails adds reaction count subqueries to a comment query.
func (r *commentRepository) applyCommentDetails(db *gorm.DB) *gorm.DB {
	return db.Select("comments.*, " +
		"(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) as likes_count, " +
		"(SELECT COUNT(*) FROM comment_dislikes WHERE comment_dislikes.comment_id = comments.id) as dislikes_count")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Author.User").
		First(comment, comment.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.applyCommentDetails(r.db.WithContext(ctx)).
		Preload("Author").
		Preload("Author.User").
		First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// ListByArticle returns every comment of the article, oldest first, flat.
// The caller assembles the reply tree in memory.
func (r *commentRepository) ListByArticle(ctx context.Context, articleID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.applyCommentDetails(r.db.WithContext(ctx)).
		Preload("Author").
		Preload("Author.User").
		Where("comments.article_id = ?", articleID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// UpdateBody snapshots the current body into the edit history, then
// overwrites it. Both writes share one transaction so a lost snapshot is
// never observable.
func (r *commentRepository) UpdateBody(ctx context.Context, comment *models.Comment, newBody string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		history := &models.CommentEditHistory{
			CommentID: comment.ID,
			Body:      comment.Body,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		comment.Body = newBody
		return tx.Model(comment).Update("body", newBody).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the comment, its whole reply subtree, and every reaction
// and history row belonging to the subtree.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := r.collectSubtreeIDs(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM comment_likes WHERE comment_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM comment_dislikes WHERE comment_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentEditHistory{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// collectSubtreeIDs walks the parent links breadth-first. Depth equals the
// thread depth, so the loop is shallow in practice.
func (r *commentRepository) collectSubtreeIDs(tx *gorm.DB, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

// ListHistory returns the comment's edit snapshots, oldest first.
func (r *commentRepository) ListHistory(ctx context.Context, commentID uint) ([]*models.CommentEditHistory, error) {
	var history []*models.CommentEditHistory
	err := r.db.WithContext(ctx).
		Where("comment_id = ?", commentID).
		Order("created_at ASC, id ASC").
		Find(&history).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return history, nil
}

func (r *commentRepository) IsLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("comment_likes").
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *commentRepository) IsDisliked(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("comment_dislikes").
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *commentRepository) Like(ctx context.Context, userID, commentID uint) error {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO comment_likes (user_id, comment_id)
		 VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		userID, commentID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	return nil
}

func (r *commentRepository) Unlike(ctx context.Context, userID, commentID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`DELETE FROM comment_likes WHERE user_id = ? AND comment_id = ?`,
		userID, commentID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) Dislike(ctx context.Context, userID, commentID uint) error {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO comment_dislikes (user_id, comment_id)
		 VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		userID, commentID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	return nil
}

func (r *commentRepository) Undislike(ctx context.Context, userID, commentID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`DELETE FROM comment_dislikes WHERE user_id = ? AND comment_id = ?`,
		userID, commentID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
