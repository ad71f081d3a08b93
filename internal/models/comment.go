package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a node in an article's discussion tree. Root comments have a
// nil ParentID. A comment's parent always pre-exists it, so the parent
// relation is acyclic and recursive serialization terminates at thread depth.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"`
	ArticleID uint           `gorm:"not null;index" json:"article_id"`
	ParentID  *uint          `gorm:"index" json:"parent_id,omitempty"`
	Author    Profile        `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Likes    []*User `gorm:"many2many:comment_likes" json:"-"`
	Dislikes []*User `gorm:"many2many:comment_dislikes" json:"-"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// DislikesCount is not persisted; computed at query time
	DislikesCount int `gorm:"->" json:"dislikes_count"`

	// Replies is assembled in memory from a parent->children index; it is
	// never loaded through recursive SQL.
	Replies []*Comment `gorm:"-" json:"replies"`
}

// CommentEditHistory is an append-only snapshot of a comment's body taken
// just before an edit overwrites it. Ordered oldest first.
type CommentEditHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;index" json:"comment_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (CommentEditHistory) TableName() string {
	return "comment_edit_histories"
}
