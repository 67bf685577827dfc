package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
)

var keyRX = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// DirStore keeps covers as files in a local directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the directory if needed and returns a store rooted at it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) path(key string) (string, error) {
	if !keyRX.MatchString(key) {
		return "", fmt.Errorf("covers: invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes the cover atomically, replacing any previous cover under key.
func (s *DirStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get opens the cover stored under key. The content type is sniffed from the file.
func (s *DirStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return f, mtype.String(), nil
}

// Delete removes the cover stored under key.
func (s *DirStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
