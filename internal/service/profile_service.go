package service

import (
	"context"

	"haven/internal/models"
	"haven/internal/repository"
)

// ProfileService handles public profiles and the follow graph.
type ProfileService struct {
	profileRepo repository.ProfileRepository
}

type UpdateProfileInput struct {
	UserID    uint
	Bio       *string
	Image     *string
	Interests *string
}

// NewProfileService creates a new profile service.
func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// view renders the profile as seen by the requesting user. Following is
// false for anonymous viewers and for the profile owner looking at themself.
func (s *ProfileService) view(ctx context.Context, profile *models.Profile, currentUserID uint) (*models.ProfileView, error) {
	following := false
	if currentUserID != 0 && currentUserID != profile.UserID {
		viewer, err := s.profileRepo.GetByUserID(ctx, currentUserID)
		if err != nil {
			return nil, err
		}
		following, err = s.profileRepo.IsFollowing(ctx, viewer.ID, profile.ID)
		if err != nil {
			return nil, err
		}
	}
	return &models.ProfileView{
		Username:  profile.User.Username,
		Bio:       profile.Bio,
		Image:     profile.Image,
		Interests: profile.Interests,
		Following: following,
	}, nil
}

// GetProfile returns the profile for a username as seen by currentUserID
// (0 for anonymous).
func (s *ProfileService) GetProfile(ctx context.Context, username string, currentUserID uint) (*models.ProfileView, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, profile, currentUserID)
}

// UpdateProfile applies the provided fields to the caller's own profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.ProfileView, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		profile.Bio = *in.Bio
	}
	if in.Image != nil {
		profile.Image = *in.Image
	}
	if in.Interests != nil {
		profile.Interests = *in.Interests
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return s.view(ctx, profile, in.UserID)
}

// Follow makes the caller follow the named profile. Following yourself is
// rejected; following twice is harmless.
func (s *ProfileService) Follow(ctx context.Context, currentUserID uint, username string) (*models.ProfileView, error) {
	follower, err := s.profileRepo.GetByUserID(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	followed, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if follower.ID == followed.ID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}

	if err := s.profileRepo.Follow(ctx, follower.ID, followed.ID); err != nil {
		return nil, err
	}
	return s.view(ctx, followed, currentUserID)
}

// Unfollow removes the follow edge. Unfollowing someone you never followed
// is harmless.
func (s *ProfileService) Unfollow(ctx context.Context, currentUserID uint, username string) (*models.ProfileView, error) {
	follower, err := s.profileRepo.GetByUserID(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	followed, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if follower.ID == followed.ID {
		return nil, models.NewValidationError("You cannot unfollow yourself")
	}

	if err := s.profileRepo.Unfollow(ctx, follower.ID, followed.ID); err != nil {
		return nil, err
	}
	return s.view(ctx, followed, currentUserID)
}

// Followers lists the profiles following the named profile.
func (s *ProfileService) Followers(ctx context.Context, username string, currentUserID uint) ([]*models.ProfileView, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	followers, err := s.profileRepo.Followers(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, followers, currentUserID)
}

// Following lists the profiles the named profile follows.
func (s *ProfileService) Following(ctx context.Context, username string, currentUserID uint) ([]*models.ProfileView, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	following, err := s.profileRepo.Following(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, following, currentUserID)
}

func (s *ProfileService) views(ctx context.Context, profiles []*models.Profile, currentUserID uint) ([]*models.ProfileView, error) {
	var viewerID uint
	if currentUserID != 0 {
		viewer, err := s.profileRepo.GetByUserID(ctx, currentUserID)
		if err != nil {
			return nil, err
		}
		viewerID = viewer.ID
	}

	result := make([]*models.ProfileView, 0, len(profiles))
	for _, p := range profiles {
		following := false
		if viewerID != 0 && viewerID != p.ID {
			var err error
			following, err = s.profileRepo.IsFollowing(ctx, viewerID, p.ID)
			if err != nil {
				return nil, err
			}
		}
		result = append(result, &models.ProfileView{
			Username:  p.User.Username,
			Bio:       p.Bio,
			Image:     p.Image,
			Interests: p.Interests,
			Following: following,
		})
	}
	return result, nil
}
