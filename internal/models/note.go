package models

import (
	"time"
)

type NoteType string

const (
	NoteTypeNotes     NoteType = "notes"
	NoteTypePastPaper NoteType = "pastpaper"
	NoteTypeTutorial  NoteType = "tutorial"
	NoteTypeReference NoteType = "reference"
)

// Valid reports whether t is one of the known note types.
func (t NoteType) Valid() bool {
	switch t {
	case NoteTypeNotes, NoteTypePastPaper, NoteTypeTutorial, NoteTypeReference:
		return true
	}
	return false
}

type NoteStatus string

const (
	NoteStatusApproved NoteStatus = "approved"
	NoteStatusPending  NoteStatus = "pending"
	NoteStatusRejected NoteStatus = "rejected"
)

func (s NoteStatus) Valid() bool {
	switch s {
	case NoteStatusApproved, NoteStatusPending, NoteStatusRejected:
		return true
	}
	return false
}

type Note struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Course      string     `gorm:"size:120;index" json:"course"`
	Type        NoteType   `gorm:"type:varchar(20);default:'notes';not null;index" json:"type"`
	Year        int        `gorm:"index" json:"year"`
	FilePath    string     `gorm:"size:255;not null" json:"file_path"`
	UploadedBy  *uint      `gorm:"index" json:"uploaded_by"` // nullable: survives user deletion
	Uploader    *User      `gorm:"foreignKey:UploadedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Views       int        `gorm:"default:0" json:"views"`
	Downloads   int        `gorm:"default:0" json:"downloads"`
	Status      NoteStatus `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`

	// Filled from a LEFT JOIN on users
	AuthorName     string `gorm:"->;-:migration" json:"author_name"`
	AuthorUsername string `gorm:"->;-:migration" json:"author"`
}
