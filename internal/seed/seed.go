// Package seed provides database seeding utilities for development and testing.
package seed

import (
	_ "embed"
	"fmt"
	"log"
	"math/rand"
	"time"

	"haven/internal/models"
	"haven/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed tags.yml
var tagsYAML []byte

type tagCatalog struct {
	Tags []string `yaml:"tags"`
}

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumArticles int
	ShouldClean bool
}

// Seed populates the database with demo data: users with profiles, a follow
// mesh, tagged articles, comment threads, ratings, favorites and bookmarks.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d articles...", opts.NumUsers, opts.NumArticles)

	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	var catalog tagCatalog
	if err := yaml.Unmarshal(tagsYAML, &catalog); err != nil {
		return fmt.Errorf("failed to parse tag catalog: %w", err)
	}
	tags, err := createTags(db, catalog.Tags)
	if err != nil {
		return fmt.Errorf("failed to create tags: %w", err)
	}
	log.Printf("%d tags available", len(tags))

	users, profiles, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d users created", len(users))

	if err := createFollowMesh(db, profiles, r); err != nil {
		return fmt.Errorf("failed to create follow mesh: %w", err)
	}

	articles, err := createArticles(db, profiles, tags, opts.NumArticles, r)
	if err != nil {
		return fmt.Errorf("failed to create articles: %w", err)
	}
	log.Printf("%d articles created", len(articles))

	if err := createEngagement(db, users, profiles, articles, r); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	log.Println("Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	tables := []string{
		"comment_likes", "comment_dislikes", "comment_edit_histories",
		"comments", "ratings", "bookmarks", "notifications",
		"article_likes", "article_dislikes", "article_tags",
		"profile_favorites", "profile_follows",
		"articles", "tags", "profiles", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createTags(db *gorm.DB, texts []string) ([]*models.Tag, error) {
	tags := make([]*models.Tag, 0, len(texts))
	for _, text := range texts {
		tag := &models.Tag{Text: text, Slug: service.Slugify(text)}
		if err := db.Where("text = ?", text).FirstOrCreate(tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func createUsers(db *gorm.DB, count int) ([]*models.User, []*models.Profile, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("SeedingPass12!"), bcrypt.MinCost)
	if err != nil {
		return nil, nil, err
	}

	users := make([]*models.User, 0, count)
	profiles := make([]*models.Profile, 0, count)
	for i := 0; i < count; i++ {
		user := &models.User{
			Username:           fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:              fmt.Sprintf("seed%d_%s", i, gofakeit.Email()),
			Password:           string(hashed),
			IsActive:           true,
			IsVerified:         true,
			WantsNotifications: true,
		}
		if err := db.Create(user).Error; err != nil {
			return nil, nil, err
		}
		profile := &models.Profile{
			UserID:    user.ID,
			Bio:       gofakeit.Sentence(12),
			Image:     fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
			Interests: gofakeit.HipsterWord(),
		}
		if err := db.Create(profile).Error; err != nil {
			return nil, nil, err
		}
		profile.User = *user
		users = append(users, user)
		profiles = append(profiles, profile)
	}
	return users, profiles, nil
}

func createFollowMesh(db *gorm.DB, profiles []*models.Profile, r *rand.Rand) error {
	for _, follower := range profiles {
		for _, followed := range profiles {
			if follower.ID == followed.ID || r.Intn(4) != 0 {
				continue
			}
			err := db.Exec(
				"INSERT INTO profile_follows (follower_id, followed_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				follower.ID, followed.ID,
			).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func createArticles(db *gorm.DB, profiles []*models.Profile, tags []*models.Tag, count int, r *rand.Rand) ([]*models.Article, error) {
	articles := make([]*models.Article, 0, count)
	for i := 0; i < count; i++ {
		author := profiles[r.Intn(len(profiles))]
		title := gofakeit.Sentence(6)
		article := &models.Article{
			Title:       title,
			Slug:        fmt.Sprintf("%s-%d", service.Slugify(title), i),
			Body:        gofakeit.Paragraph(3, 5, 12, "\n\n"),
			Description: gofakeit.Sentence(15),
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/400", gofakeit.UUID()),
			AuthorID:    author.ID,
			CreatedAt:   time.Now().Add(-time.Duration(r.Intn(90*24)) * time.Hour),
		}
		if err := db.Omit("Tags", "Author").Create(article).Error; err != nil {
			return nil, err
		}
		for _, tag := range pickTags(tags, r) {
			err := db.Exec(
				"INSERT INTO article_tags (article_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				article.ID, tag.ID,
			).Error
			if err != nil {
				return nil, err
			}
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func pickTags(tags []*models.Tag, r *rand.Rand) []*models.Tag {
	n := 1 + r.Intn(3)
	picked := make([]*models.Tag, 0, n)
	seen := map[uint]struct{}{}
	for len(picked) < n {
		t := tags[r.Intn(len(tags))]
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		picked = append(picked, t)
	}
	return picked
}

func createEngagement(db *gorm.DB, users []*models.User, profiles []*models.Profile, articles []*models.Article, r *rand.Rand) error {
	for _, article := range articles {
		// comment threads
		var roots []*models.Comment
		for i := 0; i < r.Intn(4); i++ {
			commenter := profiles[r.Intn(len(profiles))]
			comment := &models.Comment{
				Body:      gofakeit.Sentence(10),
				AuthorID:  commenter.ID,
				ArticleID: article.ID,
			}
			if err := db.Omit("Author").Create(comment).Error; err != nil {
				return err
			}
			roots = append(roots, comment)
		}
		for _, root := range roots {
			if r.Intn(2) == 0 {
				continue
			}
			replier := profiles[r.Intn(len(profiles))]
			reply := &models.Comment{
				Body:      gofakeit.Sentence(8),
				AuthorID:  replier.ID,
				ArticleID: article.ID,
				ParentID:  &root.ID,
			}
			if err := db.Omit("Author").Create(reply).Error; err != nil {
				return err
			}
		}

		// reactions, ratings, favorites, bookmarks
		for i, user := range users {
			switch r.Intn(5) {
			case 0:
				err := db.Exec(
					"INSERT INTO article_likes (user_id, article_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
					user.ID, article.ID,
				).Error
				if err != nil {
					return err
				}
			case 1:
				err := db.Exec(
					"INSERT INTO article_dislikes (user_id, article_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
					user.ID, article.ID,
				).Error
				if err != nil {
					return err
				}
			case 2:
				rating := &models.Rating{
					RaterID:   profiles[i].ID,
					ArticleID: article.ID,
					Stars:     1 + r.Intn(5),
				}
				if err := db.Create(rating).Error; err != nil {
					return err
				}
			case 3:
				err := db.Exec(
					"INSERT INTO profile_favorites (profile_id, article_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
					profiles[i].ID, article.ID,
				).Error
				if err != nil {
					return err
				}
			case 4:
				bookmark := &models.Bookmark{UserID: user.ID, ArticleID: article.ID}
				if err := db.Create(bookmark).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}
