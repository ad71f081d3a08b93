package server

import (
	"github.com/gofiber/fiber/v2"

	"haven/internal/models"
	"haven/internal/service"
)

type updateProfileRequest struct {
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Interests *string `json:"interests"`
}

// GetProfile returns a public profile. The following flag reflects the
// requesting user when a valid token is sent.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	profile, err := s.profileService.GetProfile(c.UserContext(), c.Params("username"), viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"profile": profile})
}

// UpdateProfile updates the authenticated user's profile.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    currentUserID(c),
		Bio:       req.Bio,
		Image:     req.Image,
		Interests: req.Interests,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"profile": profile})
}

// FollowProfile makes the authenticated user follow the named profile.
func (s *Server) FollowProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.Follow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"profile": profile})
}

// UnfollowProfile removes the follow edge.
func (s *Server) UnfollowProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.Unfollow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"profile": profile})
}

// GetFollowers lists profiles following the named profile.
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	profiles, err := s.profileService.Followers(c.UserContext(), c.Params("username"), viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"followers": profiles,
		"count":     len(profiles),
	})
}

// GetFollowing lists profiles the named profile follows.
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	profiles, err := s.profileService.Following(c.UserContext(), c.Params("username"), viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"following": profiles,
		"count":     len(profiles),
	})
}
