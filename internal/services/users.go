package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"path"
	"strings"

	"noteify/internal/models"
	"noteify/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	FullName string
	Course   string
	Email    string
	Username string
	Password string
}

// ProfileInput holds the editable profile fields; nil means unchanged.
type ProfileInput struct {
	FullName *string `json:"fullname"`
	Course   *string `json:"course"`
	Year     *int    `json:"year"`
	Bio      *string `json:"bio"`
}

// Profile is a user together with totals over the notes they uploaded.
type Profile struct {
	models.User
	NotesCount     int64 `json:"notes_count"`
	TotalViews     int64 `json:"total_views"`
	TotalDownloads int64 `json:"total_downloads"`
}

type UserService struct {
	db       *gorm.DB
	uploader *Uploader
	log      *zap.Logger
}

func NewUserService(db *gorm.DB, uploader *Uploader, log *zap.Logger) *UserService {
	return &UserService{db: db, uploader: uploader, log: log}
}

func (s *UserService) removeFile(ctx context.Context, relPath, reason string) {
	if relPath == "" || relPath == models.DefaultProfilePic {
		return
	}
	if err := s.uploader.Storage().Remove(ctx, relPath); err != nil {
		s.log.Warn(reason, zap.String("path", relPath), zap.Error(err))
	}
}

// Register creates a regular user. The optional avatar is stored first and
// removed again if the insert fails.
func (s *UserService) Register(ctx context.Context, in RegisterInput, avatar *multipart.FileHeader) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Course = strings.TrimSpace(in.Course)

	switch {
	case in.Username == "":
		return nil, invalid("username", "username is required")
	case in.FullName == "":
		return nil, invalid("fullname", "full name is required")
	case in.Email == "":
		return nil, invalid("email", "email is required")
	case len(in.Password) < 6:
		return nil, invalid("password", "password must be at least 6 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, invalid("email", "email is not valid")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username already taken", ErrConflict)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Course:     in.Course,
		Password:   hash,
		Role:       models.RoleUser,
		Status:     models.UserStatusActive,
		ProfilePic: models.DefaultProfilePic,
	}

	if avatar != nil {
		relPath, err := s.uploader.Store(ctx, AvatarPolicy, avatar)
		if err != nil {
			return nil, err
		}
		user.ProfilePic = relPath
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		s.removeFile(ctx, user.ProfilePic, "orphaned avatar after failed registration")
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Authenticate checks credentials first and account status second, so an
// inactive account with the right password gets ErrInactive.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrInactive
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type noteTotals struct {
	NotesCount     int64
	TotalViews     int64
	TotalDownloads int64
}

func (s *UserService) Profile(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var totals noteTotals
	if err := s.db.WithContext(ctx).Model(&models.Note{}).
		Select("COUNT(*) AS notes_count, COALESCE(SUM(views), 0) AS total_views, COALESCE(SUM(downloads), 0) AS total_downloads").
		Where("uploaded_by = ?", id).
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	return &Profile{
		User:           *user,
		NotesCount:     totals.NotesCount,
		TotalViews:     totals.TotalViews,
		TotalDownloads: totals.TotalDownloads,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, invalid("fullname", "full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if in.Course != nil {
		updates["course"] = strings.TrimSpace(*in.Course)
	}
	if in.Year != nil {
		if *in.Year < 0 || *in.Year > 10 {
			return nil, invalid("year", "year of study is out of range")
		}
		updates["year"] = *in.Year
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if len(bio) > 500 {
			return nil, invalid("bio", "bio is limited to 500 characters")
		}
		updates["bio"] = bio
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// ReplaceAvatar stores the new image, points the user at it and only then
// removes the previous image.
func (s *UserService) ReplaceAvatar(ctx context.Context, user *models.User, file *multipart.FileHeader) (string, error) {
	relPath, err := s.uploader.Store(ctx, AvatarPolicy, file)
	if err != nil {
		return "", err
	}

	old := user.ProfilePic
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Update("profile_pic", relPath).Error; err != nil {
		s.removeFile(ctx, relPath, "orphaned avatar after failed update")
		return "", fmt.Errorf("update avatar: %w", err)
	}
	user.ProfilePic = relPath

	if old != relPath {
		s.removeFile(ctx, old, "previous avatar removal failed")
	}
	return relPath, nil
}

// OpenAvatar opens a stored avatar by file name.
func (s *UserService) OpenAvatar(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.uploader.Storage().Open(ctx, path.Join(StoragePrefix, AvatarPolicy.Dir, path.Base(name)))
}

// List returns all users newest first with their upload counts.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("users.*, (SELECT COUNT(*) FROM notes WHERE notes.uploaded_by = users.id) AS notes_count").
		Order("users.created_at DESC, users.id DESC").
		Find(&users).Error
	return users, err
}

// SetStatus applies "activate" or "deactivate" to a user account.
func (s *UserService) SetStatus(ctx context.Context, actor *models.User, id uint, action string) (*models.User, error) {
	var status string
	switch action {
	case "activate":
		status = models.UserStatusActive
	case "deactivate":
		status = models.UserStatusInactive
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if actor != nil && actor.ID == id && status == models.UserStatusInactive {
		return nil, invalid("id", "you cannot deactivate your own account")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return s.Get(ctx, id)
}

// Delete removes a user. Their notes stay, with the uploader cleared.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if actor != nil && actor.ID == id {
		return invalid("id", "you cannot delete your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).Where("uploaded_by = ?", id).
			Update("uploaded_by", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	s.removeFile(ctx, user.ProfilePic, "user deleted but avatar removal failed")
	return nil
}
