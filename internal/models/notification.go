package models

import "time"

// Notification verbs.
const (
	VerbArticlePosted  = "was posted"
	VerbArticleComment = "was commented on"
)

// Notification is a per-recipient in-app notification produced by the
// fan-out on article or comment creation. Unread until explicitly marked
// read; individually deletable by its recipient.
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RecipientID  uint      `gorm:"not null;index" json:"recipient_id"`
	Verb         string    `gorm:"not null" json:"verb"`
	ArticleSlug  string    `gorm:"not null" json:"article_slug"`
	ArticleTitle string    `gorm:"not null" json:"article_title"`
	Author       string    `gorm:"not null" json:"author"`
	Commenter    string    `json:"commenter,omitempty"`
	CommentBody  string    `gorm:"type:text" json:"comment_body,omitempty"`
	Read         bool      `gorm:"default:false;index" json:"read"`
	CreatedAt    time.Time `json:"created_at"`

	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}
