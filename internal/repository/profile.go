package repository

import (
	"context"
	"errors"

	"haven/internal/cache"
	"haven/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles,
// the follow graph and article favorites.
type ProfileRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error

	Follow(ctx context.Context, followerID, followedID uint) error
	Unfollow(ctx context.Context, followerID, followedID uint) error
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	Followers(ctx context.Context, profileID uint) ([]*models.Profile, error)
	Following(ctx context.Context, profileID uint) ([]*models.Profile, error)
	FollowerUserIDs(ctx context.Context, profileID uint) ([]uint, error)

	Favorite(ctx context.Context, profileID, articleID uint) error
	Unfavorite(ctx context.Context, profileID, articleID uint) error
	IsFavorited(ctx context.Context, profileID, articleID uint) (bool, error)
	FavoriterUserIDs(ctx context.Context, articleID uint) ([]uint, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = profiles.user_id").
		Where("users.username = ?", username).
		Preload("User").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("User").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, profile.User.Username)
	return nil
}

func (r *profileRepository) Follow(ctx context.Context, followerID, followedID uint) error {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO profile_follows (follower_id, followed_id)
		 VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		followerID, followedID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	return nil
}

func (r *profileRepository) Unfollow(ctx context.Context, followerID, followedID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`DELETE FROM profile_follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("profile_follows").
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *profileRepository) Followers(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN profile_follows pf ON pf.follower_id = profiles.id").
		Where("pf.followed_id = ?", profileID).
		Preload("User").
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

func (r *profileRepository) Following(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN profile_follows pf ON pf.followed_id = profiles.id").
		Where("pf.follower_id = ?", profileID).
		Preload("User").
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

// FollowerUserIDs returns the user IDs behind every follower of the given
// profile. Used by the notification fan-out on article creation.
func (r *profileRepository) FollowerUserIDs(ctx context.Context, profileID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).
		Table("profile_follows").
		Joins("JOIN profiles ON profiles.id = profile_follows.follower_id").
		Where("profile_follows.followed_id = ?", profileID).
		Pluck("profiles.user_id", &userIDs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return userIDs, nil
}

func (r *profileRepository) Favorite(ctx context.Context, profileID, articleID uint) error {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO profile_favorites (profile_id, article_id)
		 VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		profileID, articleID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	return nil
}

func (r *profileRepository) Unfavorite(ctx context.Context, profileID, articleID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`DELETE FROM profile_favorites WHERE profile_id = ? AND article_id = ?`,
		profileID, articleID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) IsFavorited(ctx context.Context, profileID, articleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("profile_favorites").
		Where("profile_id = ? AND article_id = ?", profileID, articleID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// FavoriterUserIDs returns the user IDs behind every profile that favorited
// the given article. Used by the notification fan-out on comment creation.
func (r *profileRepository) FavoriterUserIDs(ctx context.Context, articleID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).
		Table("profile_favorites").
		Joins("JOIN profiles ON profiles.id = profile_favorites.profile_id").
		Where("profile_favorites.article_id = ?", articleID).
		Pluck("profiles.user_id", &userIDs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return userIDs, nil
}
