package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store accepts image bytes and hands back a serving URL plus an opaque
// handle for later deletion. The playlist service never cares where the
// bytes actually land.
type Store interface {
	Store(ctx context.Context, filename string, r io.Reader) (url, handle string, err error)
	Delete(ctx context.Context, handle string) error
}

var ErrUnsupportedType = errors.New("unsupported file type (allowed: png, jpg, jpeg, webp)")

// LocalStore writes files under a directory and serves them from a URL
// prefix. Handles are the generated file names.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) *LocalStore {
	return &LocalStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalStore) Store(ctx context.Context, filename string, r io.Reader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return "", "", ErrUnsupportedType
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create storage dir: %w", err)
	}

	handle := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, handle))
	if err != nil {
		return "", "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", "", fmt.Errorf("write file: %w", err)
	}

	return s.urlPrefix + "/" + handle, handle, nil
}

func (s *LocalStore) Delete(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	// Handles are generated names; reject anything path-like.
	if handle != filepath.Base(handle) {
		return fmt.Errorf("invalid handle %q", handle)
	}
	err := os.Remove(filepath.Join(s.dir, handle))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
