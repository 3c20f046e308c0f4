package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// DefaultProfilePic is the placeholder avatar; it is never removed from storage.
const DefaultProfilePic = "uploads/default.png"

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName   string    `gorm:"size:120" json:"fullname"`
	Password   string    `gorm:"not null" json:"-"`                              // bcrypt hash
	Role       string    `gorm:"size:20;default:'user';not null" json:"role"`    // user, admin
	Course     string    `gorm:"size:120" json:"course"`
	Year       int       `json:"year"`
	Bio        string    `gorm:"size:500" json:"bio"`
	ProfilePic string    `gorm:"size:255" json:"profile_pic"` // storage-relative path
	Status     string    `gorm:"size:20;default:'active';not null" json:"status"` // active, inactive
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Filled by list queries
	NotesCount int64 `gorm:"->;-:migration" json:"notes_count"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Avatar returns the profile picture path, or the default placeholder.
func (u *User) Avatar() string {
	if u.ProfilePic == "" {
		return DefaultProfilePic
	}
	return u.ProfilePic
}
