package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// StoragePrefix is the first segment of every stored path recorded in the database.
const StoragePrefix = "uploads"

// Storage persists uploaded files under stable relative paths such as
// "uploads/notes/1700000000_Midterm.pdf".
type Storage interface {
	Save(ctx context.Context, dir, name, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)
	Remove(ctx context.Context, relPath string) error
	Exists(ctx context.Context, relPath string) bool
}

// objectKey turns "uploads/<dir>/<name>" into "<dir>/<name>" and rejects
// anything that would escape the upload root.
func objectKey(relPath string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(relPath, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	key := strings.TrimPrefix(clean, StoragePrefix+"/")
	if key == clean || key == "" || strings.HasPrefix(key, "..") {
		return "", fmt.Errorf("%w: bad path %q", ErrNotFound, relPath)
	}
	return key, nil
}

// DiskStorage keeps files in a local directory.
type DiskStorage struct {
	Root string
}

func NewDiskStorage(root string) *DiskStorage {
	return &DiskStorage{Root: root}
}

func (s *DiskStorage) fullPath(relPath string) (string, error) {
	key, err := objectKey(relPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(key)), nil
}

func (s *DiskStorage) Save(ctx context.Context, dir, name, contentType string, r io.Reader) (string, error) {
	relPath := path.Join(StoragePrefix, dir, name)
	full, err := s.fullPath(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory: %v", ErrStorage, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: create file: %v", ErrStorage, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("%w: write file: %v", ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("%w: close file: %v", ErrStorage, err)
	}
	return relPath, nil
}

func (s *DiskStorage) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	full, err := s.fullPath(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, relPath)
	}
	return f, err
}

// Remove deletes the file; a file that is already gone is not an error.
func (s *DiskStorage) Remove(ctx context.Context, relPath string) error {
	full, err := s.fullPath(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove file: %v", ErrStorage, err)
	}
	return nil
}

func (s *DiskStorage) Exists(ctx context.Context, relPath string) bool {
	full, err := s.fullPath(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

// SupabaseStorage keeps files in a Supabase Storage bucket under the same
// relative paths DiskStorage would use.
type SupabaseStorage struct {
	client *storage.Client
	bucket string
}

func NewSupabaseStorage(supabaseURL, key, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		client: storage.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", key, nil),
		bucket: bucket,
	}
}

func (s *SupabaseStorage) Save(ctx context.Context, dir, name, contentType string, r io.Reader) (string, error) {
	relPath := path.Join(StoragePrefix, dir, name)
	key, err := objectKey(relPath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("%w: read upload: %v", ErrStorage, err)
	}
	options := storage.FileOptions{ContentType: &contentType}
	if _, err := s.client.UploadFile(s.bucket, key, &buf, options); err != nil {
		return "", fmt.Errorf("%w: supabase upload: %v", ErrStorage, err)
	}
	return relPath, nil
}

func (s *SupabaseStorage) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	key, err := objectKey(relPath)
	if err != nil {
		return nil, err
	}
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: file %s: %v", ErrNotFound, relPath, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SupabaseStorage) Remove(ctx context.Context, relPath string) error {
	key, err := objectKey(relPath)
	if err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("%w: supabase remove: %v", ErrStorage, err)
	}
	return nil
}

func (s *SupabaseStorage) Exists(ctx context.Context, relPath string) bool {
	rc, err := s.Open(ctx, relPath)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}
