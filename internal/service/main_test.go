package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"haven/internal/database"
	"haven/internal/events"
	"haven/internal/models"
	"haven/internal/repository"
	"haven/internal/token"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// captureMailer records outbound mail instead of sending it.
type captureMailer struct {
	mu   sync.Mutex
	sent []capturedMail
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) sentTo(address string) []capturedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []capturedMail
	for _, mail := range m.sent {
		if mail.To == address {
			out = append(out, mail)
		}
	}
	return out
}

// testEnv wires every service against a fresh in-memory database.
type testEnv struct {
	db     *gorm.DB
	mailer *captureMailer

	userRepo         repository.UserRepository
	profileRepo      repository.ProfileRepository
	articleRepo      repository.ArticleRepository
	notificationRepo repository.NotificationRepository

	dispatcher *events.Dispatcher

	users         *UserService
	profiles      *ProfileService
	articles      *ArticleService
	comments      *CommentService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:svctest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	env := &testEnv{
		db:               db,
		mailer:           &captureMailer{},
		userRepo:         repository.NewUserRepository(db),
		profileRepo:      repository.NewProfileRepository(db),
		articleRepo:      repository.NewArticleRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		dispatcher:       events.NewDispatcher(),
	}

	tokens := token.NewMaker("service-test-secret", time.Hour)
	commentRepo := repository.NewCommentRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)

	env.users = NewUserService(env.userRepo, env.mailer, tokens, "http://test.local")
	env.profiles = NewProfileService(env.profileRepo)
	env.articles = NewArticleService(env.articleRepo, env.profileRepo, ratingRepo, bookmarkRepo, env.dispatcher)
	env.comments = NewCommentService(commentRepo, env.articleRepo, env.profileRepo, env.dispatcher)
	env.notifications = NewNotificationService(env.notificationRepo, env.profileRepo, env.userRepo, env.mailer, nil)

	env.dispatcher.Subscribe(env.notifications)
	return env
}

// createUser inserts an active account directly, bypassing the signup flow.
func (env *testEnv) createUser(t *testing.T, username string) (*models.User, *models.Profile) {
	t.Helper()

	user := &models.User{
		Username:           username,
		Email:              username + "@example.com",
		Password:           "not-a-real-hash",
		IsActive:           true,
		IsVerified:         true,
		WantsNotifications: true,
	}
	require.NoError(t, env.userRepo.CreateWithProfile(context.Background(), user))

	profile, err := env.profileRepo.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	profile.User = *user
	return user, profile
}

// createArticle publishes an article through the service so slugging and
// event fan-out both run.
func (env *testEnv) createArticle(t *testing.T, userID uint, title string, tags ...string) *models.Article {
	t.Helper()

	article, err := env.articles.CreateArticle(context.Background(), CreateArticleInput{
		UserID: userID,
		Title:  title,
		Body:   "body of " + title,
		Tags:   tags,
	})
	require.NoError(t, err)
	return article
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T: %v", err, err)
	return appErr.Code
}
