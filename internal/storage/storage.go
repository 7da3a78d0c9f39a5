// Package storage keeps uploaded employee documents on an afero filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrTooLarge        = errors.New("storage: file exceeds size limit")
	ErrUnsupportedType = errors.New("storage: unsupported file type")
	ErrInvalidPath     = errors.New("storage: invalid path")
)

// DefaultMIMETypes are the document types accepted for upload.
//
//nolint:gochecknoglobals // fixed allowlist
var DefaultMIMETypes = map[string]string{
	"application/pdf":    ".pdf",
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// Store saves files below a base directory of an afero filesystem and hands
// out paths relative to it.
type Store struct {
	fs       afero.Fs
	maxBytes int64
	allowed  map[string]string
}

// New creates a Store rooted at baseDir on fs.
func New(fs afero.Fs, baseDir string, maxBytes int64) (*Store, error) {
	if err := fs.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("storage.New: %w", err)
	}
	return &Store{
		fs:       afero.NewBasePathFs(fs, baseDir),
		maxBytes: maxBytes,
		allowed:  DefaultMIMETypes,
	}, nil
}

// NewOS creates a Store on the local disk.
func NewOS(baseDir string, maxBytes int64) (*Store, error) {
	return New(afero.NewOsFs(), baseDir, maxBytes)
}

// MaxBytes returns the upload ceiling.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Saved describes a stored file.
type Saved struct {
	Path string // relative, stable
	Size int64
}

// Save copies r into a new file under dir. mimeType must be on the allowlist
// and the content must not exceed the size ceiling; a partial file is
// removed on failure.
func (s *Store) Save(dir, mimeType string, r io.Reader) (*Saved, error) {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	ext, ok := s.allowed[mimeType]
	if !ok {
		return nil, fmt.Errorf("storage.Save: %q: %w", mimeType, ErrUnsupportedType)
	}

	dir, err := clean(dir)
	if err != nil {
		return nil, fmt.Errorf("storage.Save: %w", err)
	}
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage.Save: mkdir: %w", err)
	}

	rel := path.Join(dir, uuid.NewString()+ext)
	f, err := s.fs.OpenFile(rel, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("storage.Save: create: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = s.fs.Remove(rel)
		return nil, fmt.Errorf("storage.Save: write: %w", err)
	case n > s.maxBytes:
		_ = s.fs.Remove(rel)
		return nil, fmt.Errorf("storage.Save: %w", ErrTooLarge)
	case closeErr != nil:
		_ = s.fs.Remove(rel)
		return nil, fmt.Errorf("storage.Save: close: %w", closeErr)
	}

	return &Saved{Path: rel, Size: n}, nil
}

// Open returns a reader for a stored file and its size.
func (s *Store) Open(rel string) (io.ReadCloser, int64, error) {
	rel, err := clean(rel)
	if err != nil {
		return nil, 0, fmt.Errorf("storage.Open: %w", err)
	}
	f, err := s.fs.Open(rel)
	if err != nil {
		return nil, 0, fmt.Errorf("storage.Open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("storage.Open: stat: %w", err)
	}
	return f, info.Size(), nil
}

// DeleteIfExists removes a stored file. Missing files are not an error.
func (s *Store) DeleteIfExists(rel string) error {
	if rel == "" {
		return nil
	}
	rel, err := clean(rel)
	if err != nil {
		return fmt.Errorf("storage.DeleteIfExists: %w", err)
	}
	err = s.fs.Remove(rel)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage.DeleteIfExists: %w", err)
	}
	return nil
}

func clean(p string) (string, error) {
	c := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	c = strings.TrimPrefix(c, "/")
	if c == "" || c == "." || strings.HasPrefix(c, "..") {
		return "", ErrInvalidPath
	}
	return c, nil
}
