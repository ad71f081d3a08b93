package service

import (
	"context"
	"fmt"
	"log/slog"

	"haven/internal/events"
	"haven/internal/mail"
	"haven/internal/middleware"
	"haven/internal/models"
	"haven/internal/repository"
)

// NotificationPublisher pushes a freshly created notification to the
// recipient's live channel (WebSocket via Redis pub/sub). Best-effort.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *models.Notification)
}

// NotificationService runs the fan-out on article and comment creation and
// serves the notification inbox. It subscribes to the domain event
// dispatcher.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	profileRepo      repository.ProfileRepository
	userRepo         repository.UserRepository
	mailer           mail.Mailer
	publisher        NotificationPublisher
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	mailer mail.Mailer,
	publisher NotificationPublisher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		publisher:        publisher,
	}
}

// HandleArticleCreated notifies every follower of the author who has
// notifications switched on.
func (s *NotificationService) HandleArticleCreated(ctx context.Context, e events.ArticleCreated) error {
	followerIDs, err := s.profileRepo.FollowerUserIDs(ctx, e.AuthorProfileID)
	if err != nil {
		return err
	}

	recipients, err := s.userRepo.ListWantingNotifications(ctx, followerIDs)
	if err != nil {
		return err
	}

	notifications := make([]*models.Notification, 0, len(recipients))
	for _, u := range recipients {
		notifications = append(notifications, &models.Notification{
			RecipientID:  u.ID,
			Verb:         models.VerbArticlePosted,
			ArticleSlug:  e.Slug,
			ArticleTitle: e.Title,
			Author:       e.AuthorUsername,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		return err
	}

	subject := fmt.Sprintf("%q %s", e.Title, models.VerbArticlePosted)
	body := fmt.Sprintf("%s published %q. Read it at /api/articles/%s\n", e.AuthorUsername, e.Title, e.Slug)
	s.deliver(ctx, notifications, recipients, subject, body)
	return nil
}

// HandleCommentCreated notifies everyone who favorited the article, except
// the commenter, again honoring the opt-out.
func (s *NotificationService) HandleCommentCreated(ctx context.Context, e events.CommentCreated) error {
	favoriterIDs, err := s.profileRepo.FavoriterUserIDs(ctx, e.ArticleID)
	if err != nil {
		return err
	}

	candidates := favoriterIDs[:0]
	for _, id := range favoriterIDs {
		if id != e.CommenterUserID {
			candidates = append(candidates, id)
		}
	}

	recipients, err := s.userRepo.ListWantingNotifications(ctx, candidates)
	if err != nil {
		return err
	}

	notifications := make([]*models.Notification, 0, len(recipients))
	for _, u := range recipients {
		notifications = append(notifications, &models.Notification{
			RecipientID:  u.ID,
			Verb:         models.VerbArticleComment,
			ArticleSlug:  e.ArticleSlug,
			ArticleTitle: e.ArticleTitle,
			Author:       e.ArticleAuthor,
			Commenter:    e.Commenter,
			CommentBody:  e.Body,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		return err
	}

	subject := fmt.Sprintf("%q %s", e.ArticleTitle, models.VerbArticleComment)
	body := fmt.Sprintf("%s commented on %q:\n\n%s\n", e.Commenter, e.ArticleTitle, e.Body)
	s.deliver(ctx, notifications, recipients, subject, body)
	return nil
}

// deliver pushes each stored notification to the live channel and emails
// the recipient. Both are best-effort.
func (s *NotificationService) deliver(ctx context.Context, notifications []*models.Notification, recipients []*models.User, subject, body string) {
	for i, n := range notifications {
		middleware.NotificationsFannedOut.WithLabelValues(n.Verb).Inc()

		if s.publisher != nil {
			s.publisher.Publish(ctx, n)
		}
		if s.mailer == nil {
			continue
		}
		if err := s.mailer.Send(recipients[i].Email, subject, body); err != nil {
			middleware.EmailsSent.WithLabelValues("notification", "error").Inc()
			middleware.Logger.WarnContext(ctx, "notification email failed",
				slog.Uint64("recipient_id", uint64(n.RecipientID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		middleware.EmailsSent.WithLabelValues("notification", "ok").Inc()
	}
}

// List returns a page of the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, int64, error) {
	return s.notificationRepo.ListByRecipient(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return models.NewForbiddenError("Not your notification")
	}
	return s.notificationRepo.MarkRead(ctx, notificationID)
}

// MarkAllRead marks every unread notification of the caller as read and
// returns how many were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uint) error {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return models.NewForbiddenError("Not your notification")
	}
	return s.notificationRepo.Delete(ctx, notificationID)
}

// ToggleOptIn flips the caller's notification opt-in and returns the new
// state.
func (s *NotificationService) ToggleOptIn(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	user.WantsNotifications = !user.WantsNotifications
	if err := s.userRepo.Update(ctx, user); err != nil {
		return false, err
	}
	return user.WantsNotifications, nil
}
