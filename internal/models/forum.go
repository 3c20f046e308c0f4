package models

import (
	"time"
)

// ForumPost keeps the author's display pair as written; AuthorID is only a
// soft link used when posts are shown with the live author record.
type ForumPost struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Category     string         `gorm:"size:64;index;default:'general'" json:"category"`
	AuthorName   string         `gorm:"size:120;not null" json:"author"`
	AuthorAvatar string         `gorm:"size:255" json:"authorAvatar"`
	AuthorID     *uint          `gorm:"index" json:"-"`
	Comments     []ForumComment `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`

	Replies int64 `gorm:"->;-:migration" json:"replies"`
}

type ForumComment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	AuthorName   string    `gorm:"size:120;not null" json:"author"`
	AuthorAvatar string    `gorm:"size:255" json:"authorAvatar"`
	AuthorID     *uint     `gorm:"index" json:"-"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	CreatedAt    time.Time `json:"created_at"`

	PostTitle string `gorm:"->;-:migration" json:"post_title,omitempty"`
}
