package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"noteify/internal/models"
	"noteify/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NoteInput is the metadata that accompanies an uploaded note file.
type NoteInput struct {
	Title       string
	Description string
	Course      string
	Type        string
	Year        string
}

// NoteFilter narrows a note listing. Zero values mean "any".
type NoteFilter struct {
	Course string
	Type   string
	Year   int
	Status string
	Query  string
}

// NoteService owns the pairing between note rows and their stored files.
type NoteService struct {
	db          *gorm.DB
	uploader    *Uploader
	autoApprove bool
	log         *zap.Logger
}

func NewNoteService(db *gorm.DB, uploader *Uploader, autoApprove bool, log *zap.Logger) *NoteService {
	return &NoteService{db: db, uploader: uploader, autoApprove: autoApprove, log: log}
}

func (s *NoteService) normalize(in NoteInput) (*models.Note, error) {
	note := &models.Note{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Course:      strings.TrimSpace(in.Course),
		Type:        models.NoteType(strings.ToLower(strings.TrimSpace(in.Type))),
		Year:        utils.StringToIntDefault(in.Year, time.Now().Year()),
	}
	if note.Title == "" {
		return nil, invalid("title", "title is required")
	}
	if note.Course == "" {
		return nil, invalid("course", "course is required")
	}
	if note.Type == "" {
		note.Type = models.NoteTypeNotes
	}
	if !note.Type.Valid() {
		return nil, invalid("type", "type must be one of notes, pastpaper, tutorial, reference")
	}
	if note.Year < 1900 || note.Year > 3000 {
		return nil, invalid("year", "year is out of range")
	}
	return note, nil
}

// Create validates the metadata, writes the file and then inserts the row.
// If the insert fails the file is removed again.
func (s *NoteService) Create(ctx context.Context, uploader *models.User, in NoteInput, file *multipart.FileHeader) (*models.Note, error) {
	note, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	relPath, err := s.uploader.Store(ctx, NotePolicy, file)
	if err != nil {
		return nil, err
	}

	note.FilePath = relPath
	note.UploadedBy = &uploader.ID
	note.Status = models.NoteStatusPending
	if s.autoApprove || uploader.IsAdmin() {
		note.Status = models.NoteStatusApproved
	}

	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		if rmErr := s.uploader.Storage().Remove(ctx, relPath); rmErr != nil {
			s.log.Warn("orphaned upload after failed insert",
				zap.String("path", relPath), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("insert note: %w", err)
	}

	note.AuthorName = uploader.FullName
	note.AuthorUsername = uploader.Username
	return note, nil
}

func (s *NoteService) query(ctx context.Context, viewer *models.User) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Note{}).
		Select("notes.*, users.full_name AS author_name, users.username AS author_username").
		Joins("LEFT JOIN users ON users.id = notes.uploaded_by")

	switch {
	case viewer == nil:
		q = q.Where("notes.status = ?", models.NoteStatusApproved)
	case !viewer.IsAdmin():
		q = q.Where("notes.status = ? OR notes.uploaded_by = ?", models.NoteStatusApproved, viewer.ID)
	}
	return q
}

// List returns notes visible to viewer, newest first. Anonymous users and
// regular users see approved notes; regular users also see their own.
func (s *NoteService) List(ctx context.Context, viewer *models.User, f NoteFilter) ([]models.Note, error) {
	q := s.query(ctx, viewer)

	if f.Course != "" {
		q = q.Where("notes.course = ?", f.Course)
	}
	if f.Type != "" {
		q = q.Where("notes.type = ?", f.Type)
	}
	if f.Year > 0 {
		q = q.Where("notes.year = ?", f.Year)
	}
	if f.Status != "" {
		if !models.NoteStatus(f.Status).Valid() {
			return nil, invalid("status", "unknown status")
		}
		q = q.Where("notes.status = ?", f.Status)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(notes.title) LIKE ? OR LOWER(notes.description) LIKE ?", like, like)
	}

	notes := []models.Note{}
	if err := q.Order("notes.created_at DESC, notes.id DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// Get returns one note if viewer may see it.
func (s *NoteService) Get(ctx context.Context, viewer *models.User, id uint) (*models.Note, error) {
	var note models.Note
	err := s.query(ctx, viewer).Where("notes.id = ?", id).Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: note %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NoteService) RecordView(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Note{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// OpenFile opens the stored file of a visible note and counts the download.
func (s *NoteService) OpenFile(ctx context.Context, viewer *models.User, id uint) (*models.Note, io.ReadCloser, error) {
	note, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.uploader.Storage().Open(ctx, note.FilePath)
	if errors.Is(err, ErrNotFound) {
		s.log.Warn("note file missing", zap.Uint("note_id", id), zap.String("path", note.FilePath))
		return nil, nil, fmt.Errorf("%w: file not found", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Note{}).Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error; err != nil {
		s.log.Warn("count download", zap.Uint("note_id", id), zap.Error(err))
	}
	return note, rc, nil
}

// Delete removes the row and then its file. A failed row delete leaves the
// file untouched; a failed file delete is logged and does not fail the call.
func (s *NoteService) Delete(ctx context.Context, id uint) error {
	var note models.Note
	err := s.db.WithContext(ctx).First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: note %d", ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Delete(&models.Note{}, note.ID)
	if res.Error != nil {
		return fmt.Errorf("delete note %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: note %d", ErrNotFound, id)
	}

	if note.FilePath != "" {
		if err := s.uploader.Storage().Remove(ctx, note.FilePath); err != nil {
			s.log.Warn("note row deleted but file removal failed",
				zap.Uint("note_id", id), zap.String("path", note.FilePath), zap.Error(err))
		}
	}
	return nil
}

// Moderate applies an admin action ("approve" or "reject") to a note.
func (s *NoteService) Moderate(ctx context.Context, id uint, action string) (*models.Note, error) {
	var status models.NoteStatus
	switch action {
	case "approve":
		status = models.NoteStatusApproved
	case "reject":
		status = models.NoteStatusRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	res := s.db.WithContext(ctx).Model(&models.Note{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: note %d", ErrNotFound, id)
	}

	var note models.Note
	if err := s.db.WithContext(ctx).First(&note, id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}
