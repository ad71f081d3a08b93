package models

import (
	"time"

	"gorm.io/gorm"
)

// Article represents a published document owned by a profile.
type Article struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null;index" json:"title"`
	Slug        string         `gorm:"not null;uniqueIndex" json:"slug"`
	Body        string         `gorm:"type:text;not null" json:"body"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `json:"image_url"`
	AuthorID    uint           `gorm:"not null;index" json:"author_id"`
	Author      Profile        `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Tags []*Tag `gorm:"many2many:article_tags" json:"tags,omitempty"`

	// Likes and Dislikes are disjoint user sets. Mutual exclusion is
	// maintained by the reaction operations, not by a storage constraint.
	Likes    []*User `gorm:"many2many:article_likes" json:"-"`
	Dislikes []*User `gorm:"many2many:article_dislikes" json:"-"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// DislikesCount is not persisted; computed at query time
	DislikesCount int `gorm:"->" json:"dislikes_count"`
	// FavoritesCount is not persisted; computed at query time
	FavoritesCount int `gorm:"->" json:"favorites_count"`
	// Favorited indicates whether the requesting user favorited this article (computed)
	Favorited bool `gorm:"->" json:"favorited"`
	// AverageRating is the live mean of stars across all rating rows (computed)
	AverageRating float64 `gorm:"->" json:"average_rating"`
	// TagList is the flattened tag text list used in responses
	TagList []string `gorm:"-" json:"tag_list"`
}

// Tag labels articles. Tags are get-or-created by text on article writes.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Text string `gorm:"not null;uniqueIndex" json:"text"`
	Slug string `gorm:"not null;uniqueIndex" json:"slug"`

	Articles []*Article `gorm:"many2many:article_tags" json:"-"`
}

// Rating is one user's star rating of one article. At most one row exists
// per (rater, article); Counter tracks how many times the row was edited
// and is capped at 5.
type Rating struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	RaterID   uint    `gorm:"not null;uniqueIndex:idx_rater_article" json:"rater_id"`
	ArticleID uint    `gorm:"not null;uniqueIndex:idx_rater_article" json:"article_id"`
	Stars     int     `gorm:"not null" json:"stars"`
	Counter   int     `gorm:"default:0" json:"counter"`
	Rater     Profile `gorm:"foreignKey:RaterID" json:"-"`
	Article   Article `gorm:"foreignKey:ArticleID" json:"-"`
}

// MaxRatingEdits bounds how many times a rater may revise a rating.
const MaxRatingEdits = 5

// Bookmark marks an article for later reading. Bookmarking twice is allowed;
// only removal of a missing bookmark is an error.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Article Article `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
}
