package models

import "time"

// Profile represents the public identity attached to a user.
// Exactly one profile exists per user; it is created in the same
// transaction as the user itself.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Image     string    `json:"image"`
	Interests string    `json:"interests"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`

	// Follows is the set of profiles this profile follows. The relation is
	// directional: A following B says nothing about B following A.
	Follows []*Profile `gorm:"many2many:profile_follows;joinForeignKey:FollowerID;joinReferences:FollowedID" json:"-"`

	// Favorites is the set of articles this profile has favorited.
	Favorites []*Article `gorm:"many2many:profile_favorites" json:"-"`
}

// TableName specifies the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// ProfileView is the JSON shape returned for profile endpoints. Following is
// computed per requesting identity.
type ProfileView struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Interests string `json:"interests"`
	Following bool   `json:"following"`
}
