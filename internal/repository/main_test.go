package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"haven/internal/database"
	"haven/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// setupTestDB opens a fresh in-memory SQLite database with the full schema.
// Each call gets its own database so tests stay independent.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repotest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return db
}

// createTestUser inserts an active user with an empty profile and returns both.
func createTestUser(t *testing.T, db *gorm.DB, username string) (*models.User, *models.Profile) {
	t.Helper()

	user := &models.User{
		Username:           username,
		Email:              username + "@example.com",
		Password:           "irrelevant",
		IsActive:           true,
		IsVerified:         true,
		WantsNotifications: true,
	}
	require.NoError(t, db.Create(user).Error)

	profile := &models.Profile{UserID: user.ID}
	require.NoError(t, db.Create(profile).Error)
	profile.User = *user
	return user, profile
}

// createTestArticle inserts an article through the repository so tag syncing runs.
func createTestArticle(t *testing.T, repo ArticleRepository, author *models.Profile, title, slug string, tags ...string) *models.Article {
	t.Helper()

	article := &models.Article{
		Title:    title,
		Slug:     slug,
		Body:     "body of " + title,
		AuthorID: author.ID,
	}
	require.NoError(t, repo.Create(context.Background(), article, tags))
	return article
}
