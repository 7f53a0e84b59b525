package resume

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

// ErrTooLarge is returned by Save when the upload exceeds the configured limit.
var ErrTooLarge = errors.New("resume exceeds size limit")

// BlobStore keeps raw resume files.
type BlobStore interface {
	// Save writes r under a generated name keeping filename's extension and
	// returns the storage path.
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Remove deletes a stored file. Removing a missing file is not an error.
	Remove(ctx context.Context, path string) error
}

// LocalBlobStore keeps files in one directory.
type LocalBlobStore struct {
	dir      string
	maxBytes int64
}

// NewLocalBlobStore creates dir if needed. maxBytes <= 0 disables the size limit.
func NewLocalBlobStore(dir string, maxBytes int64) (*LocalBlobStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve resume dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create resume dir: %w", err)
	}
	return &LocalBlobStore{dir: abs, maxBytes: maxBytes}, nil
}

func (s *LocalBlobStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	name := uuid.NewString() + ext

	f, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return "", ErrTooLarge
	}

	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return name, nil
}

func (s *LocalBlobStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *LocalBlobStore) Remove(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// resolve maps a storage path to a file inside dir.
func (s *LocalBlobStore) resolve(path string) (string, error) {
	full := filepath.Join(s.dir, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, s.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("blob path %q escapes resume dir", path)
	}
	return full, nil
}
