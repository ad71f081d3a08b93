// Package service implements the business logic layer for the application.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"haven/internal/mail"
	"haven/internal/middleware"
	"haven/internal/models"
	"haven/internal/repository"
	"haven/internal/token"
	"haven/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration, the activation and password reset email
// round-trips, and account updates.
type UserService struct {
	userRepo repository.UserRepository
	mailer   mail.Mailer
	tokens   *token.Maker
	baseURL  string
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserInput struct {
	UserID             uint
	Username           *string
	Email              *string
	Password           *string
	WantsNotifications *bool
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, mailer mail.Mailer, tokens *token.Maker, baseURL string) *UserService {
	return &UserService{userRepo: userRepo, mailer: mailer, tokens: tokens, baseURL: baseURL}
}

// Register validates the input, stores the user with an empty profile, and
// sends the activation email. The account stays inactive until the
// activation link is followed.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewValidationError("Email already registered")
	}
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewValidationError("Username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:           in.Username,
		Email:              in.Email,
		Password:           string(hashed),
		WantsNotifications: true,
	}
	if err := s.userRepo.CreateWithProfile(ctx, user); err != nil {
		return nil, err
	}

	s.sendActivationEmail(ctx, user)
	return user, nil
}

func (s *UserService) sendActivationEmail(ctx context.Context, user *models.User) {
	t, err := s.tokens.Issue(user.ID, user.Email, token.PurposeActivate)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to issue activation token",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	link := fmt.Sprintf("%s/api/users/activate/%s", s.baseURL, t)
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to Authors Haven. Activate your account by visiting:\n\n%s\n\nIf you did not sign up, ignore this email.\n",
		user.Username, link,
	)

	if err := s.mailer.Send(user.Email, "Activate your Authors Haven account", body); err != nil {
		middleware.EmailsSent.WithLabelValues("activation", "error").Inc()
		middleware.Logger.WarnContext(ctx, "activation email failed",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	middleware.EmailsSent.WithLabelValues("activation", "ok").Inc()
}

// Activate verifies an activation token and flips the account to active and
// verified. Activating twice is harmless.
func (s *UserService) Activate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, _, err := s.tokens.Verify(tokenString, token.PurposeActivate)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired activation link")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsActive = true
	user.IsVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the account. Inactive
// accounts cannot log in.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is not activated. Check your email for the activation link.")
	}
	return user, nil
}

// RequestPasswordReset emails a reset link when the address is known. The
// response is identical either way so the endpoint cannot be used to probe
// for registered addresses.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	user.IsReset = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	t, err := s.tokens.Issue(user.ID, user.Email, token.PurposeReset)
	if err != nil {
		return models.NewInternalError(err)
	}

	link := fmt.Sprintf("%s/api/users/pass_reset/%s", s.baseURL, t)
	body := fmt.Sprintf(
		"Hi %s,\n\nSomeone requested a password reset for your account. Follow this link to set a new password:\n\n%s\n\nIf this was not you, ignore this email.\n",
		user.Username, link,
	)

	if err := s.mailer.Send(user.Email, "Reset your Authors Haven password", body); err != nil {
		middleware.EmailsSent.WithLabelValues("password_reset", "error").Inc()
		middleware.Logger.WarnContext(ctx, "password reset email failed",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		return nil
	}
	middleware.EmailsSent.WithLabelValues("password_reset", "ok").Inc()
	return nil
}

// ResetPassword consumes a reset token and stores the new password. A token
// is only honored while the account still has a reset pending, so each
// reset link works once.
func (s *UserService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	userID, _, err := s.tokens.Verify(tokenString, token.PurposeReset)
	if err != nil {
		return models.NewUnauthorizedError("Invalid or expired reset link")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsReset {
		return models.NewUnauthorizedError("No password reset pending for this account")
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	user.Password = string(hashed)
	user.IsReset = false
	return s.userRepo.Update(ctx, user)
}

// GetUser returns the account with its profile.
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateUser applies the provided fields to the account.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}
	if in.WantsNotifications != nil {
		user.WantsNotifications = *in.WantsNotifications
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
