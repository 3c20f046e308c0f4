package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"noteify/internal/utils"
)

// UploadPolicy describes what one kind of upload accepts and where it goes.
type UploadPolicy struct {
	Dir          string
	MaxSize      int64
	AllowedTypes map[string]bool
}

var (
	AvatarPolicy = UploadPolicy{
		Dir:     "avatars",
		MaxSize: 5 * 1024 * 1024,
		AllowedTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
		},
	}

	NotePolicy = UploadPolicy{
		Dir:     "notes",
		MaxSize: 10 * 1024 * 1024,
		AllowedTypes: map[string]bool{
			"application/pdf":    true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		},
	}
)

// Validate checks the declared content type and the size of an upload.
// Nothing is written when it fails.
func (p UploadPolicy) Validate(header *multipart.FileHeader) error {
	if header == nil {
		return invalid("file", "no file uploaded")
	}
	if !p.AllowedTypes[declaredType(header)] {
		return fmt.Errorf("%w: %s is not allowed", ErrUnsupportedType, declaredType(header))
	}
	if header.Size > p.MaxSize {
		return fmt.Errorf("%w: maximum size is %dMB", ErrTooLarge, p.MaxSize/(1024*1024))
	}
	return nil
}

func declaredType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// StoredName builds a collision-resistant file name from the upload time and
// the sanitised original name, e.g. "1700000000123456789_Midterm_Notes.pdf".
func StoredName(now time.Time, original string) string {
	base, ext := utils.SanitizeBaseName(original)
	return fmt.Sprintf("%d_%s%s", now.UnixNano(), base, ext)
}

// Uploader validates uploads and writes them to a Storage.
type Uploader struct {
	storage Storage
	now     func() time.Time
}

func NewUploader(storage Storage) *Uploader {
	return &Uploader{storage: storage, now: time.Now}
}

func (u *Uploader) Storage() Storage {
	return u.storage
}

// Store validates header against policy and writes it, returning the
// storage-relative path. Callers that record the path in the database must
// Remove it again if that write fails.
func (u *Uploader) Store(ctx context.Context, policy UploadPolicy, header *multipart.FileHeader) (string, error) {
	if err := policy.Validate(header); err != nil {
		return "", err
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open upload: %v", ErrStorage, err)
	}
	defer src.Close()

	// header.Size comes from the multipart parser; cap the copy as well
	limited := &limitedReader{r: io.LimitReader(src, policy.MaxSize+1), max: policy.MaxSize}
	relPath, err := u.storage.Save(ctx, policy.Dir, StoredName(u.now(), header.Filename), declaredType(header), limited)
	if limited.exceeded {
		if relPath != "" {
			u.storage.Remove(ctx, relPath)
		}
		return "", fmt.Errorf("%w: maximum size is %dMB", ErrTooLarge, policy.MaxSize/(1024*1024))
	}
	if err != nil {
		return "", err
	}
	return relPath, nil
}

type limitedReader struct {
	r        io.Reader
	max      int64
	n        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		l.exceeded = true
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}
