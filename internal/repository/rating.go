package repository

import (
	"context"
	"errors"

	"haven/internal/models"

	"gorm.io/gorm"
)

// RatingRepository defines persistence operations for article ratings.
type RatingRepository interface {
	GetByRaterAndArticle(ctx context.Context, raterID, articleID uint) (*models.Rating, error)
	Create(ctx context.Context, rating *models.Rating) error
	Update(ctx context.Context, rating *models.Rating) error
	Average(ctx context.Context, articleID uint) (float64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository returns a new RatingRepository implementation.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// GetByRaterAndArticle returns nil, nil when the rater has not rated yet.
func (r *ratingRepository) GetByRaterAndArticle(ctx context.Context, raterID, articleID uint) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("rater_id = ? AND article_id = ?", raterID, articleID).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &rating, nil
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Create(rating).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Rating already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ratingRepository) Update(ctx context.Context, rating *models.Rating) error {
	err := r.db.WithContext(ctx).
		Model(rating).
		Updates(map[string]interface{}{"stars": rating.Stars, "counter": rating.Counter}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Average is the live mean of stars across all rating rows for the article.
// Zero when no ratings exist.
func (r *ratingRepository) Average(ctx context.Context, articleID uint) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("article_id = ?", articleID).
		Select("COALESCE(AVG(stars), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return avg, nil
}
